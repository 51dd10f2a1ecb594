// Package docker builds and exports images through the Docker engine API.
//
// [Client] satisfies build.Builder: it sends the build context stream to the
// engine, renders the engine's JSON progress output, and reports the built
// image. [Client.Save] writes an image as a "docker save" archive, which the
// tracker package imports into containerd.
//
// Example usage:
//
//	c, err := docker.New()
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	result, err := build.Run(ctx, c, build.Options{Context: "."})
package docker
