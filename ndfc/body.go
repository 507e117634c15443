package ndfc

import (
	"strings"

	"github.com/tidwall/sjson"
)

// body builds a request payload with sjson. The first error sticks and is
// reported by String.
type body struct {
	json string
	err  error
}

func newBody() *body {
	return &body{json: "{}"}
}

func (b *body) set(path string, value interface{}) *body {
	if b.err != nil {
		return b
	}
	b.json, b.err = sjson.Set(b.json, path, value)
	return b
}

func (b *body) setRaw(path, raw string) *body {
	if b.err != nil {
		return b
	}
	b.json, b.err = sjson.SetRaw(b.json, path, raw)
	return b
}

// setList sets path to the JSON array built from l.
func (b *body) setList(path string, l *list) *body {
	raw, err := l.String()
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return b
	}
	return b.setRaw(path, raw)
}

// setMap sets every pair of m under prefix, escaping keys.
func (b *body) setMap(prefix string, m map[string]string) *body {
	if prefix != "" {
		b.setRaw(prefix, "{}")
		prefix += "."
	}
	for k, v := range m {
		b.set(prefix+escapeKey(k), v)
	}
	return b
}

func (b *body) String() (string, error) {
	return b.json, b.err
}

// list is a JSON array of bodies.
type list struct {
	items []string
	err   error
}

func newList() *list {
	return &list{}
}

func (l *list) add(item *body) *list {
	if l.err != nil {
		return l
	}
	raw, err := item.String()
	if err != nil {
		l.err = err
		return l
	}
	l.items = append(l.items, raw)
	return l
}

func (l *list) String() (string, error) {
	return "[" + strings.Join(l.items, ",") + "]", l.err
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	".", `\.`,
	"*", `\*`,
	"?", `\?`,
)

func escapeKey(key string) string {
	return pathEscaper.Replace(key)
}
