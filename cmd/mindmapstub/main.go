// Command mindmapstub is a stand-in for the real PDF to mindmap converter in
// local development. It checks the input is a PDF and prints one mindmap named
// after the file.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type mindmap struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: mindmapstub <file.pdf>")
		os.Exit(2)
	}
	path := os.Args[len(os.Args)-1]
	head := make([]byte, 512)
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", path, err)
		os.Exit(1)
	}
	n, _ := f.Read(head)
	_ = f.Close()
	if http.DetectContentType(head[:n]) != "application/pdf" {
		fmt.Fprintf(os.Stderr, "%s is not a PDF\n", path)
		os.Exit(1)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := []mindmap{{
		Title:   title,
		Content: fmt.Sprintf("mindmap\n  root((%s))\n    Overview\n    Key ideas\n    Review", title),
	}}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
