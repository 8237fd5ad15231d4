// Package filtering holds the watch list: a set of domains whose traffic is
// reported when the list is non-empty.
package filtering

import (
	"strings"
	"sync"
)

// DomainTrie matches names against stored domains and their subdomains.
//
// Domains are stored with labels in reverse order, so "ads.example.com"
// lives at com -> example -> ads and suffix matching is a walk from the root.
// Lookup is O(k) in the number of labels.
//
// Safe for concurrent use.
type DomainTrie struct {
	root *trieNode
	mu   sync.RWMutex
	size int
}

type trieNode struct {
	children map[string]*trieNode
	isEnd    bool // the domain itself matches
	isWild   bool // every name below matches
}

// NewDomainTrie creates an empty trie.
func NewDomainTrie() *DomainTrie {
	return &DomainTrie{root: newTrieNode()}
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode, 4)}
}

// Add inserts domain. With subdomains set, every name below it matches too.
func (t *DomainTrie) Add(domain string, subdomains bool) {
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
	if !node.isEnd && !node.isWild {
		t.size++
	}
	node.isEnd = true
	if subdomains {
		node.isWild = true
	}
}

// Match reports whether name is a stored domain, or lies below one that was
// added with subdomains. Matching ignores case and a trailing dot.
func (t *DomainTrie) Match(name string) bool {
	name = normalizeDomain(name)
	if name == "" {
		return false
	}
	labels := reversedLabels(name)

	t.mu.RLock()
	defer t.mu.RUnlock()

	node := t.root
	for i, label := range labels {
		child, ok := node.children[label]
		if !ok {
			return false
		}
		node = child
		if node.isWild && i < len(labels)-1 {
			return true
		}
	}
	return node.isEnd
}

// Len returns the number of stored domains.
func (t *DomainTrie) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

func normalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimSuffix(domain, ".")
}

// reversedLabels turns "ads.example.com" into ["com", "example", "ads"].
func reversedLabels(domain string) []string {
	labels := strings.Split(domain, ".")
	n := len(labels)
	for i := range n / 2 {
		labels[i], labels[n-1-i] = labels[n-1-i], labels[i]
	}
	return labels
}
