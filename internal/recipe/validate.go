package recipe

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Dotted Python identifier path with at least a module and a class.
var classPathPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)+$`)

// Task identifiers the engine accepts.
var tasks = []string{
	"MULTI_CLASS_CLS",
	"MULTI_LABEL_CLS",
	"H_LABEL_CLS",
	"DETECTION",
	"ROTATED_DETECTION",
	"INSTANCE_SEGMENTATION",
	"SEMANTIC_SEGMENTATION",
	"ACTION_CLASSIFICATION",
	"VISUAL_PROMPTING",
	"ZERO_SHOT_VISUAL_PROMPTING",
	"ANOMALY_CLASSIFICATION",
	"ANOMALY_DETECTION",
	"ANOMALY_SEGMENTATION",
	"KEYPOINT_DETECTION",
}

// Device selectors the engine accepts.
var devices = []string{"auto", "cpu", "gpu", "xpu"}

// Constructor parameters of model classes with a known signature. Classes
// not listed here are not checked.
var modelArgs = map[string][]string{
	"otx.algo.classification.deit_tiny.DeitTinyForMulticlassCls": {"label_info", "optimizer", "scheduler", "metric", "torch_compile"},
	"otx.algo.classification.deit_tiny.DeitTinyForMultilabelCls": {"label_info", "optimizer", "scheduler", "metric", "torch_compile"},
	"otx.algo.classification.deit_tiny.DeitTinyForHLabelCls":     {"label_info", "optimizer", "scheduler", "metric", "torch_compile"},
}

// Lists every problem found in a recipe.
type ValidationError struct {
	Source   string   // Recipe source.
	Problems []string // One entry per violation.
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %d problem(s): %s", e.Source, len(e.Problems), strings.Join(e.Problems, "; "))
}

// Checks the recipe against what the engine accepts.
//
// All violations are collected into a [ValidationError] marked with
// [ErrInvalid]. Class paths are only checked for shape; whether they resolve
// to a loadable component is up to the engine.
func (r *Recipe) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	checkClass := func(where string, ref ClassRef) {
		if !classPathPattern.MatchString(ref.ClassPath) {
			add("%s: invalid class_path %q", where, ref.ClassPath)
		}
	}

	checkClass("model", r.Model.ClassRef)
	if allowed, ok := modelArgs[r.Model.ClassPath]; ok {
		for _, arg := range sortedKeys(r.Model.InitArgs) {
			if !slices.Contains(allowed, arg) {
				add("model: %s does not accept init_args.%s", r.Model.ClassPath, arg)
			}
		}
	}
	if r.Model.Optimizer != nil {
		checkClass("model.init_args.optimizer", *r.Model.Optimizer)
	}
	for i, s := range r.Model.Schedulers {
		checkClass(fmt.Sprintf("model.init_args.scheduler[%d]", i), s)
	}
	for i, cb := range r.Callbacks {
		checkClass(fmt.Sprintf("overrides.callbacks[%d]", i), cb)
	}

	if !slices.Contains(tasks, r.Engine.Task) {
		add("engine.task: unknown task %q", r.Engine.Task)
	}
	if !slices.Contains(devices, r.Engine.Device) {
		add("engine.device: %q is not one of %s", r.Engine.Device, strings.Join(devices, ", "))
	}
	if r.CallbackMonitor == "" {
		add("callback_monitor: missing")
	}

	if doc := r.doc(); doc.Exists(keyMaxEpochs) {
		if n, ok := r.MaxEpochs(); !ok || n <= 0 {
			add("overrides.max_epochs: want a positive integer, got %v", doc.Get(keyMaxEpochs))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.Mark(&ValidationError{Source: r.Source, Problems: problems}, ErrInvalid)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
