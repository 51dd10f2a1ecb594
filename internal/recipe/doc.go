// Package recipe loads training recipes.
//
// A recipe is a YAML document naming the model class and its constructor
// arguments (including nested optimizer and scheduler references), the
// engine task and device, the metric monitored by callbacks, a reference to
// a data document, and an overrides block that supersedes training defaults.
// Components are referenced by class_path and init_args; resolving them is
// the training engine's job, this package only reads and checks the shape.
//
// Documents are parsed with koanf, so a recipe can also be viewed as a flat
// dotted key space ([Recipe.Flatten]) and merged over defaults
// ([Recipe.Apply]).
//
// Example usage:
//
//	r, err := recipe.Resolve("classification/multi_class_cls/deit_tiny")
//	if err != nil {
//	    return err
//	}
//	if err := r.Validate(); err != nil {
//	    return err
//	}
//	effective, err := r.Apply(nil)
package recipe
