package minipro

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/dustin/go-humanize"
)

// infoLexer tokenises `minipro -d` output. A key is a label at line start
// terminated by a colon; everything else up to the newline is text.
var infoLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Key", Pattern: `[A-Za-z][A-Za-z0-9 _/()+.-]*?:`},
	{Name: "Text", Pattern: `[^\n]+`},
	{Name: "EOL", Pattern: `\n`},
})

type infoDoc struct {
	Entries []*infoEntry `@@*`
}

type infoEntry struct {
	Key   string `(  @Key`
	Value string `   @Text? EOL?`
	Note  string ` | @Text EOL?`
	Blank bool   ` | @EOL )`
}

var infoParser = participle.MustBuild[infoDoc](
	participle.Lexer(infoLexer),
)

// Field is one "Key: Value" pair in output order.
type Field struct {
	Key   string
	Value string
}

// DeviceInfo is the parsed database entry for one device.
type DeviceInfo struct {
	Name   string
	Fields []Field
	// Notes holds free text lines that are not key/value pairs.
	Notes []string
}

// ParseDeviceInfo parses the text printed by `minipro -d <device>`.
func ParseDeviceInfo(text string) (DeviceInfo, error) {
	doc, err := infoParser.ParseString("", text)
	if err != nil {
		return DeviceInfo{}, fmt.Errorf("parse device info: %w", err)
	}

	var info DeviceInfo
	for _, e := range doc.Entries {
		switch {
		case e.Key != "":
			key := strings.TrimSpace(strings.TrimSuffix(e.Key, ":"))
			val := strings.TrimSpace(e.Value)
			info.Fields = append(info.Fields, Field{Key: key, Value: val})
			if info.Name == "" && strings.EqualFold(key, "Name") {
				info.Name = val
			}
		case e.Note != "":
			note := strings.TrimSpace(e.Note)
			if note != "" && strings.Trim(note, "*-= ") != "" {
				info.Notes = append(info.Notes, note)
			}
		}
	}
	return info, nil
}

// Get returns the first field whose key matches case-insensitively.
func (d DeviceInfo) Get(key string) (string, bool) {
	for _, f := range d.Fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Package returns the package name, e.g. DIP28.
func (d DeviceInfo) Package() string {
	v, _ := d.Get("Package")
	return v
}

// Programmers lists the programmer models that support the device.
func (d DeviceInfo) Programmers() []string {
	v, ok := d.Get("Available on")
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MemorySize returns the code memory size in bytes when it is stated in a
// byte unit.
func (d DeviceInfo) MemorySize() (uint64, bool) {
	v, ok := d.Get("Memory")
	if !ok {
		return 0, false
	}
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return 0, false
	}
	s := fields[0]
	if len(fields) > 1 {
		unit := strings.ToLower(fields[1])
		if strings.HasPrefix(unit, "byte") {
			unit = "B"
		}
		s += " " + unit
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Summary renders a one line description such as "AT28C256 (DIP28, 32 KiB)".
func (d DeviceInfo) Summary() string {
	var parts []string
	if p := d.Package(); p != "" {
		parts = append(parts, p)
	}
	if n, ok := d.MemorySize(); ok {
		parts = append(parts, humanize.IBytes(n))
	}
	if len(parts) == 0 {
		return d.Name
	}
	return fmt.Sprintf("%s (%s)", d.Name, strings.Join(parts, ", "))
}
