package recipe

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/v2"
)

// Reference to a component the training engine instantiates.
type ClassRef struct {
	ClassPath string         `koanf:"class_path"` // Fully qualified class, e.g. "torch.optim.AdamW".
	InitArgs  map[string]any `koanf:"init_args"`  // Constructor arguments.
}

// The model declaration.
//
// The optimizer and schedulers are nested inside the model's init_args and
// are lifted out for typed access. They remain part of InitArgs as well.
type Model struct {
	ClassRef
	Optimizer  *ClassRef  // From init_args.optimizer, nil when absent.
	Schedulers []ClassRef // From init_args.scheduler; one entry or a list.
}

// Task and device selection for the engine.
type Engine struct {
	Task   string `koanf:"task"`   // Task identifier, e.g. "MULTI_CLASS_CLS".
	Device string `koanf:"device"` // Device selector, e.g. "auto".
}

// A training recipe.
//
// A Recipe is read once and treated as immutable afterwards. The zero value
// behaves as an empty document.
type Recipe struct {
	Model           Model          // Model, optimizer, and scheduler.
	Engine          Engine         // Engine task and device.
	CallbackMonitor string         // Metric watched by training callbacks.
	Data            string         // Path of the data document, relative to the recipe.
	Overrides       map[string]any // Training parameters that supersede defaults.
	Callbacks       []ClassRef     // Callbacks from overrides.callbacks.
	Source          string         // Where the recipe was read from.

	data *koanf.Koanf // Loaded data document, nil when not resolved.
	raw  *koanf.Koanf // The document as parsed.
}

// Top-level document keys.
const (
	keyModel           = "model"
	keyEngine          = "engine"
	keyCallbackMonitor = "callback_monitor"
	keyData            = "data"
	keyOverrides       = "overrides"
	keyOptimizer       = "model.init_args.optimizer"
	keyScheduler       = "model.init_args.scheduler"
	keyCallbacks       = "overrides.callbacks"
	keyMaxEpochs       = "overrides.max_epochs"
)

// Decodes a parsed document into a [Recipe].
func decode(k *koanf.Koanf, source string) (*Recipe, error) {
	r := &Recipe{
		Source:          source,
		CallbackMonitor: k.String(keyCallbackMonitor),
		Data:            k.String(keyData),
		raw:             k,
	}

	if err := k.Unmarshal(keyModel, &r.Model.ClassRef); err != nil {
		return nil, decodeErr(source, keyModel, err)
	}
	if err := k.Unmarshal(keyEngine, &r.Engine); err != nil {
		return nil, decodeErr(source, keyEngine, err)
	}

	if k.Exists(keyOptimizer) {
		r.Model.Optimizer = &ClassRef{}
		if err := k.Unmarshal(keyOptimizer, r.Model.Optimizer); err != nil {
			return nil, decodeErr(source, keyOptimizer, err)
		}
	}

	schedulers, err := classRefs(k, keyScheduler)
	if err != nil {
		return nil, decodeErr(source, keyScheduler, err)
	}
	r.Model.Schedulers = schedulers

	if k.Exists(keyOverrides) {
		if err := k.Unmarshal(keyOverrides, &r.Overrides); err != nil {
			return nil, decodeErr(source, keyOverrides, err)
		}
	}

	callbacks, err := classRefs(k, keyCallbacks)
	if err != nil {
		return nil, decodeErr(source, keyCallbacks, err)
	}
	r.Callbacks = callbacks

	return r, nil
}

// Reads a key holding either a single class reference or a list of them.
func classRefs(k *koanf.Koanf, key string) ([]ClassRef, error) {
	switch k.Get(key).(type) {
	case nil:
		return nil, nil
	case []any:
		var refs []ClassRef
		err := k.Unmarshal(key, &refs)
		return refs, err
	default:
		var ref ClassRef
		err := k.Unmarshal(key, &ref)
		return []ClassRef{ref}, err
	}
}

func decodeErr(source, key string, err error) error {
	return errors.Mark(errors.Wrapf(err, "%s: decode %s", source, key), ErrRecipe)
}

// Returns overrides.max_epochs.
//
// The second result is false when the override is absent or not an integer.
func (r *Recipe) MaxEpochs() (int, bool) {
	switch v := r.doc().Get(keyMaxEpochs).(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

// Returns the loaded data document, or nil when data was not resolved.
func (r *Recipe) DataConfig() *koanf.Koanf {
	return r.data
}

// A flattened key/value pair of a recipe document.
type Entry struct {
	Key   string // Dotted key path.
	Value string // Rendered value.
}

// Returns the document as sorted dotted key/value pairs.
func (r *Recipe) Flatten() []Entry {
	return flatten(r.doc())
}

func flatten(k *koanf.Koanf) []Entry {
	keys := k.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, Entry{Key: key, Value: fmt.Sprint(k.Get(key))})
	}
	return entries
}

// Returns the parsed document, or an empty one for a zero Recipe.
func (r *Recipe) doc() *koanf.Koanf {
	if r.raw == nil {
		return koanf.New(delim)
	}
	return r.raw
}
