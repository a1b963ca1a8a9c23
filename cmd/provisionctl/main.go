package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

var AppVersion string

var flagServer = &cli.StringFlag{
	Name:    "server",
	Value:   "http://localhost:8080",
	Usage:   "Provisioner server URL",
	EnvVars: []string{"PROVISIONCTL_SERVER"},
}

var flagToken = &cli.StringFlag{
	Name:    "token",
	Usage:   "Bearer token printed by the login command",
	EnvVars: []string{"PROVISIONCTL_TOKEN"},
}

var flagName = &cli.StringFlag{
	Name:  "name",
	Usage: "Device name, defaults to the minted device ID",
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "provisionctl",
		Usage:   "Provision devices against a sketch provisioner server",
		Version: AppVersion,
		Flags:   []cli.Flag{flagServer, flagToken},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Obtain a bearer token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"PROVISIONCTL_PASSWORD"}},
				},
				Action: func(cCtx *cli.Context) error {
					token, err := clientFrom(cCtx).Login(cCtx.Context, cCtx.String("username"), cCtx.String("password"))
					if err != nil {
						return fmt.Errorf("login failed: %w", err)
					}
					fmt.Fprintln(cCtx.App.Writer, token)
					return nil
				},
			},
			{
				Name:  "sketches",
				Usage: "List sketch variants",
				Action: func(cCtx *cli.Context) error {
					sketches, err := clientFrom(cCtx).ListSketches(cCtx.Context)
					if err != nil {
						return err
					}
					for _, s := range sketches {
						fmt.Fprintln(cCtx.App.Writer, s)
					}
					return nil
				},
			},
			{
				Name:      "download",
				Usage:     "Provision a device and save its sketch archive",
				ArgsUsage: "<variant>",
				Flags: []cli.Flag{
					flagName,
					&cli.StringFlag{Name: "out", Value: ".", Usage: "Directory to save the archive in"},
				},
				Action: func(cCtx *cli.Context) error {
					variant, err := requireArg(cCtx, "variant")
					if err != nil {
						return err
					}
					path, deviceID, err := clientFrom(cCtx).Download(cCtx.Context, variant, cCtx.String(flagName.Name), cCtx.String("out"))
					if err != nil {
						return err
					}
					slog.Info("Device provisioned", "device_id", deviceID, "archive", path)
					fmt.Fprintln(cCtx.App.Writer, path)
					return nil
				},
			},
			{
				Name:      "link",
				Usage:     "Provision a device and print a download link",
				ArgsUsage: "<variant>",
				Flags:     []cli.Flag{flagName},
				Action: func(cCtx *cli.Context) error {
					variant, err := requireArg(cCtx, "variant")
					if err != nil {
						return err
					}
					link, err := clientFrom(cCtx).GenerateLink(cCtx.Context, variant, cCtx.String(flagName.Name))
					if err != nil {
						return err
					}
					encoded, _ := json.MarshalIndent(link, "", "  ")
					fmt.Fprintln(cCtx.App.Writer, string(encoded))
					return nil
				},
			},
			{
				Name:  "devices",
				Usage: "List provisioned devices",
				Action: func(cCtx *cli.Context) error {
					devices, err := clientFrom(cCtx).ListDevices(cCtx.Context)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(cCtx.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tENROLLED")
					for _, d := range devices {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Type, d.Status, d.EnrolledAt)
					}
					return w.Flush()
				},
				Subcommands: []*cli.Command{
					{
						Name:      "rm",
						Usage:     "Remove a device and revoke its credentials",
						ArgsUsage: "<device-id>",
						Action: func(cCtx *cli.Context) error {
							id, err := requireArg(cCtx, "device-id")
							if err != nil {
								return err
							}
							return clientFrom(cCtx).RemoveDevice(cCtx.Context, id)
						},
					},
				},
			},
		},
	}
}

func clientFrom(cCtx *cli.Context) *Client {
	return NewClient(cCtx.String(flagServer.Name), cCtx.String(flagToken.Name))
}

func requireArg(cCtx *cli.Context, name string) (string, error) {
	if cCtx.NArg() < 1 || cCtx.Args().First() == "" {
		return "", fmt.Errorf("<%s> is required", name)
	}
	return cCtx.Args().First(), nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
