package recipe

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	delim       = "."       // Key path delimiter.
	builtinRoot = "recipes" // Root of the embedded recipe tree.
	baseDir     = "_base_"  // Shared documents referenced by recipes, not recipes themselves.
	extension   = ".yaml"   // Recipe file extension.
)

//go:embed all:recipes
var builtins embed.FS

// Parses a recipe document without resolving its data reference.
func Parse(b []byte) (*Recipe, error) {
	k, err := parseBytes(b)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse recipe"), ErrRecipe)
	}
	return decode(k, "(inline)")
}

// Loads a recipe file and the data document it references.
//
// The data path is resolved against the directory containing the recipe.
func Load(filename string) (*Recipe, error) {
	k, err := LoadDocument(filename)
	if err != nil {
		return nil, err
	}

	r, err := decode(k, filename)
	if err != nil {
		return nil, err
	}

	if r.Data != "" {
		dataPath := r.Data
		if !filepath.IsAbs(dataPath) {
			dataPath = filepath.Join(filepath.Dir(filename), dataPath)
		}
		if r.data, err = LoadDocument(dataPath); err != nil {
			return nil, errors.Wrapf(err, "%s: data", filename)
		}
	}

	slog.Debug("recipe loaded", "source", filename, "data", r.Data)
	return r, nil
}

// Loads any YAML document from disk.
func LoadDocument(filename string) (*koanf.Koanf, error) {
	k := koanf.New(delim)
	if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "load %s", filename), ErrRecipe)
	}
	return k, nil
}

// Loads a recipe compiled into the binary by name, e.g.
// "classification/multi_class_cls/deit_tiny".
func LoadBuiltin(name string) (*Recipe, error) {
	name = strings.TrimSuffix(name, extension)
	filename := path.Join(builtinRoot, name+extension)

	if !fs.ValidPath(filename) || strings.HasPrefix(name, baseDir+"/") {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}

	k, err := readBuiltin(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrNotFound, "%q", name)
		}
		return nil, err
	}

	r, err := decode(k, "builtin:"+name)
	if err != nil {
		return nil, err
	}

	if r.Data != "" {
		dataPath := path.Join(path.Dir(filename), r.Data)
		if r.data, err = readBuiltin(dataPath); err != nil {
			return nil, errors.Wrapf(err, "builtin %s: data", name)
		}
	}

	return r, nil
}

// Lists the names of the built-in recipes in lexical order.
func Builtins() []string {
	var names []string
	fs.WalkDir(builtins, builtinRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == baseDir {
			return fs.SkipDir
		}
		if d.IsDir() || path.Ext(p) != extension {
			return nil
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(p, builtinRoot+"/"), extension))
		return nil
	})
	sort.Strings(names)
	return names
}

// Loads name from disk when such a file exists, otherwise from the
// built-in recipes.
func Resolve(name string) (*Recipe, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return Load(name)
	}
	return LoadBuiltin(name)
}

func readBuiltin(filename string) (*koanf.Koanf, error) {
	b, err := builtins.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	k, err := parseBytes(b)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parse %s", filename), ErrRecipe)
	}
	return k, nil
}

func parseBytes(b []byte) (*koanf.Koanf, error) {
	k := koanf.New(delim)
	if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
		return nil, err
	}
	return k, nil
}
