package recipe_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/harness/internal/recipe"
)

const deitTiny = "classification/multi_class_cls/deit_tiny"

func TestLoadBuiltinDeitTiny(t *testing.T) {
	r, err := recipe.LoadBuiltin(deitTiny)
	require.NoError(t, err)

	require.Equal(t, "otx.algo.classification.deit_tiny.DeitTinyForMulticlassCls", r.Model.ClassPath)
	require.Equal(t, 1000, r.Model.InitArgs["label_info"])

	require.NotNil(t, r.Model.Optimizer)
	require.Equal(t, "torch.optim.AdamW", r.Model.Optimizer.ClassPath)
	require.Equal(t, 0.0001, r.Model.Optimizer.InitArgs["lr"])
	require.Equal(t, 0.05, r.Model.Optimizer.InitArgs["weight_decay"])

	require.Len(t, r.Model.Schedulers, 1)
	require.Equal(t, "lightning.pytorch.cli.ReduceLROnPlateau", r.Model.Schedulers[0].ClassPath)
	require.Equal(t, "max", r.Model.Schedulers[0].InitArgs["mode"])
	require.Equal(t, 0.5, r.Model.Schedulers[0].InitArgs["factor"])
	require.Equal(t, 1, r.Model.Schedulers[0].InitArgs["patience"])
	require.Equal(t, "val/accuracy", r.Model.Schedulers[0].InitArgs["monitor"])

	require.Equal(t, "MULTI_CLASS_CLS", r.Engine.Task)
	require.Equal(t, "auto", r.Engine.Device)
	require.Equal(t, "val/accuracy", r.CallbackMonitor)
	require.Equal(t, "../../_base_/data/mmpretrain_base.yaml", r.Data)

	epochs, ok := r.MaxEpochs()
	require.True(t, ok)
	require.Equal(t, 90, epochs)
	require.Equal(t, 90, r.Overrides["max_epochs"])

	require.Len(t, r.Callbacks, 1)
	require.Equal(t, "otx.algo.callbacks.adaptive_early_stopping.EarlyStoppingWithWarmup", r.Callbacks[0].ClassPath)
	require.Equal(t, 3, r.Callbacks[0].InitArgs["patience"])

	data := r.DataConfig()
	require.NotNil(t, data)
	require.Equal(t, "MULTI_CLASS_CLS", data.String("task"))
	require.Equal(t, 64, data.Int("config.train_subset.batch_size"))
}

func TestBuiltins(t *testing.T) {
	names := recipe.Builtins()
	require.Contains(t, names, deitTiny)
	for _, name := range names {
		require.NotContains(t, name, "_base_")
	}
}

func TestLoadBuiltinNotFound(t *testing.T) {
	for _, name := range []string{"classification/none", "_base_/data/mmpretrain_base", "../etc/passwd"} {
		_, err := recipe.LoadBuiltin(name)
		require.ErrorIs(t, err, recipe.ErrNotFound, name)
	}
}

func TestLoadFromDisk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "_base_", "data.yaml"), "task: MULTI_LABEL_CLS\nconfig:\n  batch_size: 32\n")
	writeFile(t, filepath.Join(root, "cls", "recipe.yaml"), `
model:
  class_path: otx.algo.classification.deit_tiny.DeitTinyForMultilabelCls
  init_args:
    label_info: 10
engine:
  task: MULTI_LABEL_CLS
  device: cpu
callback_monitor: val/map_50
data: ../_base_/data.yaml
`)

	r, err := recipe.Load(filepath.Join(root, "cls", "recipe.yaml"))
	require.NoError(t, err)
	require.Nil(t, r.Model.Optimizer)
	require.Empty(t, r.Model.Schedulers)
	require.Empty(t, r.Callbacks)
	require.Equal(t, 32, r.DataConfig().Int("config.batch_size"))

	_, ok := r.MaxEpochs()
	require.False(t, ok)
	require.NoError(t, r.Validate())
}

func TestLoadMissingData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "recipe.yaml"), "engine:\n  task: DETECTION\ndata: missing.yaml\n")

	_, err := recipe.Load(filepath.Join(dir, "recipe.yaml"))
	require.ErrorIs(t, err, recipe.ErrRecipe)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "recipe.yaml"), "model: [unterminated\n")

	_, err := recipe.Load(filepath.Join(dir, "recipe.yaml"))
	require.ErrorIs(t, err, recipe.ErrRecipe)
}

func TestParseSchedulerList(t *testing.T) {
	r, err := recipe.Parse([]byte(`
model:
  class_path: otx.algo.detection.atss.MobileNetV2ATSS
  init_args:
    scheduler:
      - class_path: otx.core.schedulers.LinearWarmupSchedulerCallable
        init_args:
          num_warmup_steps: 3
      - class_path: lightning.pytorch.cli.ReduceLROnPlateau
        init_args:
          mode: max
engine:
  task: DETECTION
  device: auto
callback_monitor: val/map_50
`))
	require.NoError(t, err)
	require.Len(t, r.Model.Schedulers, 2)
	require.Equal(t, "otx.core.schedulers.LinearWarmupSchedulerCallable", r.Model.Schedulers[0].ClassPath)
	require.Equal(t, 3, r.Model.Schedulers[0].InitArgs["num_warmup_steps"])
	require.NoError(t, r.Validate())
}

func TestValidateBuiltin(t *testing.T) {
	for _, name := range recipe.Builtins() {
		r, err := recipe.LoadBuiltin(name)
		require.NoError(t, err, name)
		require.NoError(t, r.Validate(), name)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	r, err := recipe.Parse([]byte(`
model:
  class_path: otx.algo.classification.deit_tiny.DeitTinyForMulticlassCls
  init_args:
    label_info: 10
    dropout: 0.1
    optimizer:
      class_path: AdamW
engine:
  task: IMAGE_CAPTIONING
  device: tpu
overrides:
  max_epochs: -1
  callbacks:
    - class_path: "otx.algo.callbacks.not valid"
`))
	require.NoError(t, err)

	err = r.Validate()
	require.ErrorIs(t, err, recipe.ErrInvalid)

	var verr *recipe.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Problems, 7)
	require.Contains(t, err.Error(), "init_args.dropout")
	require.Contains(t, err.Error(), `"AdamW"`)
	require.Contains(t, err.Error(), "IMAGE_CAPTIONING")
	require.Contains(t, err.Error(), "tpu")
	require.Contains(t, err.Error(), "callback_monitor")
	require.Contains(t, err.Error(), "max_epochs")
	require.Contains(t, err.Error(), "overrides.callbacks[0]")
}

func TestValidateFractionalEpochs(t *testing.T) {
	r, err := recipe.Parse([]byte(`
model:
  class_path: a.B
engine:
  task: DETECTION
  device: gpu
callback_monitor: val/map
overrides:
  max_epochs: 1.5
`))
	require.NoError(t, err)
	require.ErrorIs(t, r.Validate(), recipe.ErrInvalid)
}

func TestApply(t *testing.T) {
	r, err := recipe.LoadBuiltin(deitTiny)
	require.NoError(t, err)

	defaults := koanf.New(".")
	require.NoError(t, defaults.Load(rawbytes.Provider([]byte(`
max_epochs: 200
precision: 16
callbacks:
  - class_path: lightning.pytorch.callbacks.RichProgressBar
  - class_path: lightning.pytorch.callbacks.ModelCheckpoint
engine:
  device: gpu
  work_dir: otx-workspace
`)), yaml.Parser()))

	effective, err := r.Apply(defaults)
	require.NoError(t, err)

	require.Equal(t, 90, effective.Int("max_epochs"))
	require.Equal(t, 16, effective.Int("precision"))
	require.Equal(t, "auto", effective.String("engine.device"))
	require.Equal(t, "otx-workspace", effective.String("engine.work_dir"))
	require.Equal(t, "val/accuracy", effective.String("callback_monitor"))
	require.Equal(t, 0.0001, effective.Float64("model.init_args.optimizer.init_args.lr"))
	require.Equal(t, 64, effective.Int("data.config.train_subset.batch_size"))
	require.False(t, effective.Exists("overrides"))

	callbacks, ok := effective.Get("callbacks").([]any)
	require.True(t, ok)
	require.Len(t, callbacks, 1)

	// The recipe itself is untouched.
	epochs, _ := r.MaxEpochs()
	require.Equal(t, 90, epochs)
	require.Equal(t, "../../_base_/data/mmpretrain_base.yaml", r.Data)

	out, err := recipe.Marshal(effective)
	require.NoError(t, err)
	require.Contains(t, string(out), "max_epochs: 90")
}

func TestApplyWithoutDefaults(t *testing.T) {
	r, err := recipe.Parse([]byte("engine:\n  task: DETECTION\ndata: d.yaml\noverrides:\n  max_epochs: 5\n"))
	require.NoError(t, err)

	effective, err := r.Apply(nil)
	require.NoError(t, err)
	require.Equal(t, 5, effective.Int("max_epochs"))
	require.Equal(t, "d.yaml", effective.String("data"))
}

func TestFlatten(t *testing.T) {
	r, err := recipe.LoadBuiltin(deitTiny)
	require.NoError(t, err)

	values := make(map[string]string)
	var keys []string
	for _, e := range r.Flatten() {
		values[e.Key] = e.Value
		keys = append(keys, e.Key)
	}

	require.IsNonDecreasing(t, keys)
	require.Equal(t, "90", values["overrides.max_epochs"])
	require.Equal(t, "0.0001", values["model.init_args.optimizer.init_args.lr"])
	require.Equal(t, "val/accuracy", values["callback_monitor"])
}

func TestResolve(t *testing.T) {
	r, err := recipe.Resolve(deitTiny)
	require.NoError(t, err)
	require.Equal(t, "builtin:"+deitTiny, r.Source)

	path := filepath.Join(t.TempDir(), "local.yaml")
	writeFile(t, path, "engine:\n  task: DETECTION\n  device: cpu\n")
	r, err = recipe.Resolve(path)
	require.NoError(t, err)
	require.Equal(t, path, r.Source)

	_, err = recipe.Resolve("does/not/exist")
	require.ErrorIs(t, err, recipe.ErrNotFound)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestZeroRecipe(t *testing.T) {
	var r recipe.Recipe

	err := r.Validate()
	require.ErrorIs(t, err, recipe.ErrInvalid)
	require.Contains(t, err.Error(), "callback_monitor")

	_, ok := r.MaxEpochs()
	require.False(t, ok)
	require.Empty(t, r.Flatten())
	require.Nil(t, r.DataConfig())

	effective, err := r.Apply(nil)
	require.NoError(t, err)
	require.Empty(t, effective.Keys())
}
