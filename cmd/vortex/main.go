// Package main provides the vortex CLI.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/vortex-ml/vortex/array"
	"github.com/vortex-ml/vortex/driver/sim"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("vortex %s\n", version)
			return
		case "demo":
			if err := demo(); err != nil {
				fmt.Fprintln(os.Stderr, "demo failed:", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("vortex - strided device arrays for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  demo       Run a short end-to-end computation on the simulator")
}

func demo() error {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	drv := sim.New()
	defer drv.Close()
	ctx := array.NewContext(drv, array.WithLogger(log))
	defer ctx.Close()

	a, err := array.Arange(ctx, 10, array.Float32)
	if err != nil {
		return err
	}
	defer a.Release()

	b, err := a.MulScalar(2)
	if err != nil {
		return err
	}
	defer b.Release()

	c, err := b.AddScalar(1)
	if err != nil {
		return err
	}
	defer c.Release()

	h, err := c.Get()
	if err != nil {
		return err
	}
	log.Info().Ints("shape", c.Shape()).Str("dtype", c.DType().String()).Msg("computed 2*arange(10)+1")
	fmt.Println(h.AsFloat32())
	return nil
}
