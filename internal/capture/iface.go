package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoInterfaces is returned when there is nothing to choose from.
var ErrNoInterfaces = errors.New("no capture interfaces available")

// Interface describes a capture device.
type Interface struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Addresses   []string `json:"addresses,omitempty"`
}

// String renders the interface for the selection list.
func (i Interface) String() string {
	var b strings.Builder
	b.WriteString(i.Name)
	if i.Description != "" {
		b.WriteString(" (")
		b.WriteString(i.Description)
		b.WriteString(")")
	}
	if len(i.Addresses) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(i.Addresses, ", "))
		b.WriteString("]")
	}
	return b.String()
}

// ListInterfaces writes a numbered list of ifaces, starting at 1.
func ListInterfaces(w io.Writer, ifaces []Interface) error {
	if _, err := fmt.Fprintln(w, "Available network interfaces:"); err != nil {
		return err
	}
	for i, iface := range ifaces {
		if _, err := fmt.Fprintf(w, "%d)\t%s\n", i+1, iface); err != nil {
			return err
		}
	}
	return nil
}

// SelectInterface lists ifaces on w and reads a 1-based choice from r.
func SelectInterface(r io.Reader, w io.Writer, ifaces []Interface) (Interface, error) {
	if len(ifaces) == 0 {
		return Interface{}, ErrNoInterfaces
	}
	if err := ListInterfaces(w, ifaces); err != nil {
		return Interface{}, err
	}
	if _, err := fmt.Fprint(w, "\nSelect interface to capture on: "); err != nil {
		return Interface{}, err
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Interface{}, fmt.Errorf("reading selection: %w", err)
	}
	line = strings.TrimSpace(line)

	n, err := strconv.Atoi(line)
	if err != nil {
		return Interface{}, fmt.Errorf("invalid selection %q: not a number", line)
	}
	if n < 1 || n > len(ifaces) {
		return Interface{}, fmt.Errorf("invalid selection %d: out of range 1-%d", n, len(ifaces))
	}
	return ifaces[n-1], nil
}
