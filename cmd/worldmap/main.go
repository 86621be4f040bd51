package main

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/retrozone/worldmap"
	"github.com/urfave/cli/v2"
)

const (
	defaultDB     = "world.db"
	defaultImages = "tile_images"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newWorldMap(c *cli.Context) (*worldmap.WorldMap, error) {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}

	return worldmap.New(c.String("db"), logger)
}

func main() {
	app := cli.NewApp()

	app.Name = "worldmap"
	app.Usage = "Reconstruct a global world map from extracted ROM data"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"WORLDMAP_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	imagesFlag := &cli.StringFlag{
		Name:  "images",
		Value: filepath.Join(cwd, defaultImages),
		Usage: "directory for deduplicated tile images",
	}
	originFlag := &cli.StringFlag{
		Name:  "origin",
		Usage: "zone placed at (0,0); defaults to the first overworld zone",
	}
	limitFlag := &cli.IntFlag{
		Name:  "limit",
		Usage: "maximum zones placed by traversal (0 for no limit)",
	}

	app.Commands = []*cli.Command{
		{
			Name:  "build",
			Usage: "Run every pipeline stage in order",
			Flags: []cli.Flag{imagesFlag, originFlag, limitFlag},
			Action: func(c *cli.Context) error {
				m, err := newWorldMap(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if err := m.Build(c.String("images"), c.String("origin"), c.Int("limit")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "tiles",
			Usage: "Compose, deduplicate and catalog tile images",
			Flags: []cli.Flag{imagesFlag},
			Action: func(c *cli.Context) error {
				m, err := newWorldMap(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if err := m.BuildTiles(c.String("images")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "layout",
			Usage: "Place zones in the global coordinate space",
			Flags: []cli.Flag{originFlag, limitFlag},
			Action: func(c *cli.Context) error {
				m, err := newWorldMap(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if err := m.ResolveLayout(c.String("origin"), c.Int("limit")); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "project",
			Usage: "Recompute global coordinates from zone offsets",
			Action: func(c *cli.Context) error {
				m, err := newWorldMap(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if err := m.Project(); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "warps",
			Usage: "Resolve symbolic warp destinations",
			Action: func(c *cli.Context) error {
				m, err := newWorldMap(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer m.Close()

				if err := m.ResolveWarps(); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
