// Package build produces the MLflow tracker image used by the regression
// harness.
//
// A build stages the shared dependency list into the build context, streams
// the context as a tar archive to a [Builder], and removes the staged copy
// once the builder returns, on success and on failure alike. The proxy
// settings (http_proxy, https_proxy, no_proxy) are always forwarded as build
// arguments; unset values are sent as empty strings.
//
// The builder is an interface so the engine can be swapped; the docker
// package provides the implementation backed by the Docker engine API.
//
// Example usage:
//
//	result, err := build.Run(ctx, builder, build.Options{
//	    Context: "docker/mlflow-tracker",
//	    Proxy: build.Proxy{
//	        HTTP:  os.Getenv("http_proxy"),
//	        HTTPS: os.Getenv("https_proxy"),
//	    },
//	})
//	if err != nil {
//	    return err
//	}
package build
