// Command tinyfs is a thin driver over package fs: it holds no
// filesystem logic of its own and exists only to exercise TinyFS's
// public API against a real image file.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	tfserrors "github.com/tinyfs-go/tinyfs/errors"
	"github.com/tinyfs-go/tinyfs/fs"
	"github.com/tinyfs-go/tinyfs/geometry"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := log.New(os.Stderr, "tinyfs: ", 0)

	app := &cli.App{
		Name:  "tinyfs",
		Usage: "Inspect and manipulate a TinyFS disk image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "geometry",
				Usage: fmt.Sprintf("named disk geometry preset (%v)", geometry.Names()),
				Value: "tiny",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create an image at PATH if none can be loaded there",
				ArgsUsage: "PATH",
				Action:    withFilesystem(logger, actionNoop),
			},
			{
				Name:      "create",
				Usage:     "Create an empty file",
				ArgsUsage: "PATH NAME",
				Action:    withFilesystem(logger, actionCreate),
			},
			{
				Name:      "write",
				Usage:     "Write stdin to a file, starting from offset 0",
				ArgsUsage: "PATH NAME",
				Action:    withFilesystem(logger, actionWrite),
			},
			{
				Name:      "read",
				Usage:     "Read a file's contents to stdout",
				ArgsUsage: "PATH NAME",
				Action:    withFilesystem(logger, actionRead),
			},
			{
				Name:      "rm",
				Usage:     "Delete a file",
				ArgsUsage: "PATH NAME",
				Action:    withFilesystem(logger, actionDelete),
			},
			{
				Name:      "ls",
				Usage:     "List live files and their sizes",
				ArgsUsage: "PATH",
				Action:    withFilesystem(logger, actionList),
			},
			{
				Name:      "check",
				Usage:     "Validate an image's bitmap/inode invariants",
				ArgsUsage: "PATH",
				Action:    withFilesystem(logger, actionCheck),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatalf("%s", err)
	}
}

// withFilesystem boots the image named by the command's first argument
// and hands it, along with the remaining arguments, to action. Every
// subcommand shares this boot/teardown sequence.
func withFilesystem(
	logger *log.Logger,
	action func(*fs.Filesystem, *cli.Context) error,
) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.Exit("expected a disk image path as the first argument", 1)
		}

		preset, err := geometry.Get(c.String("geometry"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		params, err := preset.Params()
		if err != nil {
			return cli.Exit(err, 1)
		}

		path := c.Args().First()
		filesystem, err := fs.Boot(path, params, logger)
		if err != nil {
			return cli.Exit(fmt.Sprintf("boot failed: %s", err), 1)
		}

		if err := action(filesystem, c); err != nil {
			return cli.Exit(err, 1)
		}
		return filesystem.Sync()
	}
}

func actionNoop(*fs.Filesystem, *cli.Context) error {
	return nil
}

func argName(c *cli.Context, position int) (string, error) {
	if c.NArg() < position+2 {
		return "", cli.Exit("expected a file name argument", 1)
	}
	return c.Args().Get(position + 1), nil
}

func actionCreate(filesystem *fs.Filesystem, c *cli.Context) error {
	name, err := argName(c, 0)
	if err != nil {
		return err
	}
	return filesystem.Create(name)
}

func actionWrite(filesystem *fs.Filesystem, c *cli.Context) error {
	name, err := argName(c, 0)
	if err != nil {
		return err
	}

	contents, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}

	if err := filesystem.Create(name); err != nil && !errors.Is(err, tfserrors.ErrFileExists) {
		return err
	}

	fd, err := filesystem.Open(name)
	if err != nil {
		return err
	}
	defer filesystem.Close(fd)

	n, err := filesystem.Write(fd, contents)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d bytes\n", n)
	return nil
}

func actionRead(filesystem *fs.Filesystem, c *cli.Context) error {
	name, err := argName(c, 0)
	if err != nil {
		return err
	}

	fd, err := filesystem.Open(name)
	if err != nil {
		return err
	}
	defer filesystem.Close(fd)

	buf := make([]byte, filesystem.Params().MaxFileSize())
	n, err := filesystem.Read(fd, buf)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf[:n])
	return err
}

func actionDelete(filesystem *fs.Filesystem, c *cli.Context) error {
	name, err := argName(c, 0)
	if err != nil {
		return err
	}
	return filesystem.Delete(name)
}

func actionList(filesystem *fs.Filesystem, _ *cli.Context) error {
	infos, err := filesystem.List()
	if err != nil {
		return err
	}
	for _, info := range infos {
		fmt.Printf("%-20s %d bytes\n", info.Name, info.Size)
	}
	return nil
}

func actionCheck(filesystem *fs.Filesystem, _ *cli.Context) error {
	if err := filesystem.Check(); err != nil {
		fmt.Println(err)
		return cli.Exit("consistency check failed", 2)
	}
	fmt.Println("no violations found")
	return nil
}
