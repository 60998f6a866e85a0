package locations

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed locations.toml
var builtin []byte

// file is the TOML shape of a locations file: one table per station under
// [locations].
type file struct {
	Locations map[string]Location `toml:"locations"`
}

// Builtin returns the stations shipped with the binary.
func Builtin() (map[string]Location, error) {
	return decode(builtin, "embedded locations")
}

// Load returns the built-in stations merged with the given TOML files, later
// files overriding earlier definitions of the same station. Station names
// are case-insensitive.
func Load(paths ...string) (map[string]Location, error) {
	out, err := Builtin()
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read locations file: %w", err)
		}
		custom, err := decode(raw, path)
		if err != nil {
			return nil, err
		}
		for name, loc := range custom {
			out[name] = loc
		}
	}
	return out, nil
}

// Get looks up a station by name, case-insensitively.
func Get(all map[string]Location, name string) (Location, error) {
	if loc, ok := all[strings.ToLower(name)]; ok {
		return loc, nil
	}
	known := make([]string, 0, len(all))
	for name := range all {
		known = append(known, name)
	}
	sort.Strings(known)
	return Location{}, fmt.Errorf("unknown location %q (known: %s)", name, strings.Join(known, ", "))
}

func decode(raw []byte, origin string) (map[string]Location, error) {
	var f file
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", origin, err)
	}
	out := make(map[string]Location, len(f.Locations))
	for name, loc := range f.Locations {
		loc.Name = name
		out[strings.ToLower(name)] = loc
	}
	return out, nil
}
