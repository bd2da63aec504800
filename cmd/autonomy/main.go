// Command autonomy runs the navigation supervisor against an in-process
// transport bus. Sensor drivers, localisation, and the mission scheduler
// attach to the same bus out of process scope.
package main

import (
	"context"
	"flag"

	"github.com/2lambda123/Boeing-modular-navigation/autonomy"
	"github.com/2lambda123/Boeing-modular-navigation/gridmap"
	"github.com/2lambda123/Boeing-modular-navigation/transform"
	"github.com/2lambda123/Boeing-modular-navigation/transport"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	// plugin registrations
	_ "github.com/2lambda123/Boeing-modular-navigation/bandcontroller"
	_ "github.com/2lambda123/Boeing-modular-navigation/omniplanner"
	_ "github.com/2lambda123/Boeing-modular-navigation/simband"
)

var logger = golog.NewDevelopmentLogger("autonomy")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	flags := flag.NewFlagSet("autonomy", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to the supervisor configuration")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if *configPath == "" {
		return errors.New("a -config file is required")
	}

	conf, err := autonomy.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	bus := transport.NewBus()
	tf := transform.NewStaticBuffer(0)

	base := &gridmap.BaseMapLayer{}
	layers := make([]gridmap.Layer, 0, len(conf.Layers))
	deps := gridmap.LayerDeps{
		Bus:         bus,
		TF:          tf,
		GlobalFrame: conf.GlobalFrame,
		RobotFrame:  conf.RobotFrame,
		Footprint:   conf.Footprint,
		Logger:      logger,
	}
	for _, lc := range conf.Layers {
		layer, err := gridmap.NewLayer(lc.Type, lc.Name)
		if err != nil {
			return err
		}
		if err := layer.Initialize(lc.Attributes, deps); err != nil {
			return errors.Wrap(err, "configuration_invalid")
		}
		layers = append(layers, layer)
	}

	m, err := gridmap.NewLayeredMap(conf.Map, base, layers, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	a, err := autonomy.New(conf, bus, tf, m, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Infow("autonomy running", "global_frame", conf.GlobalFrame)
	<-ctx.Done()
	return nil
}
