package filtering

import (
	"bufio"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"
)

// AddPattern adds one watch pattern:
//
//	example.com      example.com and every name below it
//	*.example.com    names below example.com only
//	=example.com     exactly example.com
//
// Hosts-file lines ("0.0.0.0 example.com") and Adblock rules
// ("||example.com^") are accepted as example.com.
func (t *DomainTrie) AddPattern(pattern string) error {
	domain, exact, below, err := parsePattern(pattern)
	if err != nil {
		return err
	}
	if domain == "" {
		return nil
	}
	switch {
	case exact:
		t.Add(domain, false)
	case below:
		t.addBelow(domain)
	default:
		t.Add(domain, true)
	}
	return nil
}

// addBelow marks domain's subtree without matching domain itself.
func (t *DomainTrie) addBelow(domain string) {
	domain = normalizeDomain(domain)
	if domain == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	node := t.root
	for _, label := range reversedLabels(domain) {
		child, ok := node.children[label]
		if !ok {
			child = newTrieNode()
			node.children[label] = child
		}
		node = child
	}
	if !node.isWild && !node.isEnd {
		t.size++
	}
	node.isWild = true
}

func parsePattern(line string) (domain string, exact, below bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return "", false, false, nil
	}
	if i := strings.IndexByte(line, '#'); i > 0 {
		line = strings.TrimSpace(line[:i])
	}

	switch {
	case strings.HasPrefix(line, "||"):
		line = strings.TrimPrefix(line, "||")
		if i := strings.IndexAny(line, "^$/"); i >= 0 {
			line = line[:i]
		}
	case strings.HasPrefix(line, "="):
		exact = true
		line = strings.TrimPrefix(line, "=")
	case strings.HasPrefix(line, "*."):
		below = true
		line = strings.TrimPrefix(line, "*.")
	default:
		if fields := strings.Fields(line); len(fields) >= 2 {
			if _, perr := netip.ParseAddr(fields[0]); perr == nil {
				line = fields[1]
			}
		}
	}

	line = normalizeDomain(line)
	if line == "" {
		return "", false, false, nil
	}
	if strings.ContainsAny(line, " \t*/") || strings.Contains(line, "..") {
		return "", false, false, fmt.Errorf("invalid watch pattern %q", line)
	}
	return line, exact, below, nil
}

// Load reads patterns, one per line, into the trie. Blank lines and lines
// starting with # or ! are skipped.
func (t *DomainTrie) Load(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := t.AddPattern(scanner.Text()); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// NewWatchList builds a trie from inline patterns and pattern files.
func NewWatchList(patterns []string, files []string) (*DomainTrie, error) {
	t := NewDomainTrie()
	for _, p := range patterns {
		if err := t.AddPattern(p); err != nil {
			return nil, err
		}
	}
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open watch file: %w", err)
		}
		err = t.Load(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return t, nil
}
