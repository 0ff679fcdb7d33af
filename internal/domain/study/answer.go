package study

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Answer is either an option index or option text. On the wire it is a JSON
// number or a JSON string; both forms are accepted for stored correct answers
// and for submissions.
type Answer struct {
	index   int
	text    string
	isIndex bool
}

func IndexAnswer(i int) Answer   { return Answer{index: i, isIndex: true} }
func TextAnswer(s string) Answer { return Answer{text: s} }

func (a Answer) IsZero() bool { return !a.isIndex && a.text == "" }

func (a Answer) String() string {
	if a.isIndex {
		return strconv.Itoa(a.index)
	}
	return a.text
}

// Resolve maps the answer onto an index into options. Text matches an option
// case-insensitively after trimming; failing that, numeric text is read as an index.
func (a Answer) Resolve(options []string) (int, bool) {
	if a.isIndex {
		return a.index, a.index >= 0 && a.index < len(options)
	}
	want := strings.TrimSpace(a.text)
	if want == "" {
		return -1, false
	}
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), want) {
			return i, true
		}
	}
	if i, err := strconv.Atoi(want); err == nil && i >= 0 && i < len(options) {
		return i, true
	}
	return -1, false
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.isIndex {
		return []byte(strconv.Itoa(a.index)), nil
	}
	return json.Marshal(a.text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("answer must be a string or an integer: %w", err)
	}
	i, err := strconv.Atoi(n.String())
	if err != nil {
		return fmt.Errorf("answer must be a string or an integer: %w", err)
	}
	*a = IndexAnswer(i)
	return nil
}

func (a *Answer) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: answer must be a scalar", node.Line)
	}
	if node.Tag == "!!int" {
		i, err := strconv.Atoi(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*a = IndexAnswer(i)
		return nil
	}
	*a = TextAnswer(node.Value)
	return nil
}
