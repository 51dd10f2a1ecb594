// Package tracker runs the MLflow tracker image for regression runs.
//
// The image is built by the Docker engine but run under containerd, so
// [Start] moves it across: the engine saves it to an archive in the cache
// directory, containerd imports and unpacks it, and a detached container is
// started on the host network with the proxy settings in its environment.
package tracker
