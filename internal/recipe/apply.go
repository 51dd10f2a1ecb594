package recipe

import (
	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

// Computes the effective training configuration.
//
// Layers are merged in order, later layers winning:
//
//  1. defaults (may be nil)
//  2. the recipe without its overrides block, with "data" replaced by the
//     loaded data document when one was resolved
//  3. the overrides block, merged at the top level
//
// Maps merge key by key; scalars and lists are replaced wholesale, so an
// override list such as callbacks supersedes the default list. The recipe
// itself is not modified.
func (r *Recipe) Apply(defaults *koanf.Koanf) (*koanf.Koanf, error) {
	out := koanf.New(delim)

	if defaults != nil {
		if err := out.Merge(defaults); err != nil {
			return nil, applyErr(err, "defaults")
		}
	}

	doc := r.doc()

	base := doc.Copy()
	base.Delete(keyOverrides)
	if r.data != nil {
		base.Delete(keyData)
		if err := base.MergeAt(r.data, keyData); err != nil {
			return nil, applyErr(err, keyData)
		}
	}
	if err := out.Merge(base); err != nil {
		return nil, applyErr(err, "recipe")
	}

	if doc.Exists(keyOverrides) {
		if err := out.Merge(doc.Cut(keyOverrides)); err != nil {
			return nil, applyErr(err, keyOverrides)
		}
	}

	return out, nil
}

// Renders a configuration as YAML.
func Marshal(k *koanf.Koanf) ([]byte, error) {
	b, err := k.Marshal(yaml.Parser())
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "marshal"), ErrRecipe)
	}
	return b, nil
}

func applyErr(err error, layer string) error {
	return errors.Mark(errors.Wrapf(err, "apply %s", layer), ErrRecipe)
}
