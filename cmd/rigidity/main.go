// Command rigidity normalises motion-capture marker trajectories into a
// rigid skeleton, estimates body dimensions and picks a calibration frame.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
