// Package runtime runs harness images under containerd.
//
// A [Runtime] connects to a containerd daemon, imports image archives
// (OCI or "docker save" layout), tags and unpacks them for the host
// platform, and starts detached containers from them. The regression
// harness uses it to run the MLflow tracker next to the training jobs.
//
// Each [Container] is a lightweight handle keyed by ID. It reports its
// state, runs extra processes inside the running task, and can be stopped
// or destroyed to release its task and snapshot.
//
// Example usage:
//
//	rt, err := runtime.New("", "", "")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	if err := rt.ImportImage(ctx, "mlflow-tracker.tar", "mlflow-tracker:v2.8.1"); err != nil {
//	    return err
//	}
//
//	ctr, err := rt.StartFromTag(ctx, "mlflow-tracker:v2.8.1", "mlflow-tracker", nil)
//	if err != nil {
//	    return err
//	}
//
//	result, err := ctr.Exec(ctx, []string{"mlflow", "--version"}, nil)
package runtime
