package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yadisk-unofficial/yadisk-go"
)

func newLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List files and directories",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}

	cmd.Flags().BoolP("long", "l", false, "long listing with size and modification time")

	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote-path> [local-path]",
		Short: "Download a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path>... <remote-dir>",
		Short: "Upload one or more files",
		Long: `Upload files to a remote directory. With multiple local files the
uploads run concurrently, bounded by parallel_transfers from the config.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runPut,
	}

	cmd.Flags().Bool("overwrite", false, "overwrite existing remote files")

	return cmd
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or directory (moves to the trash)",
		Args:  cobra.ExactArgs(1),
		RunE:  runRm,
	}

	cmd.Flags().Bool("permanent", false, "permanently delete instead of moving to the trash")

	return cmd
}

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}
}

func newMvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Move or rename a resource",
		Args:  cobra.ExactArgs(2),
		RunE:  runMv,
	}

	cmd.Flags().Bool("overwrite", false, "overwrite the destination if it exists")

	return cmd
}

func newCpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cp <src> <dst>",
		Short: "Copy a resource",
		Args:  cobra.ExactArgs(2),
		RunE:  runCp,
	}

	cmd.Flags().Bool("overwrite", false, "overwrite the destination if it exists")

	return cmd
}

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <path>",
		Short: "Make a resource public and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE:  runPublish,
	}

	cmd.Flags().Bool("revoke", false, "revoke public access instead")

	return cmd
}

// lsEntry is the JSON schema for `ls --json`.
type lsEntry struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     int64  `json:"size,omitempty"`
	Modified string `json:"modified,omitempty"`
}

func runLs(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	remotePath := "/"
	if len(args) == 1 {
		remotePath = args[0]
	}

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	items, err := client.ListDir(ctx, remotePath,
		yadisk.WithFields("_embedded.items.name", "_embedded.items.type",
			"_embedded.items.size", "_embedded.items.modified",
			"_embedded.total", "type"))
	if err != nil {
		return err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	if flagJSON {
		entries := make([]lsEntry, 0, len(items))
		for _, item := range items {
			e := lsEntry{Name: item.Name, Type: item.Type, Size: item.Size}
			if item.Modified != nil {
				e.Modified = item.Modified.Format("2006-01-02T15:04:05Z07:00")
			}

			entries = append(entries, e)
		}

		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	long, _ := cmd.Flags().GetBool("long")
	for _, item := range items {
		printResource(&item, long)
	}

	return nil
}

func runGet(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	remotePath := args[0]

	localPath := path.Base(remotePath)
	if len(args) == 2 {
		localPath = args[1]
	}

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DownloadFile(ctx, remotePath, localPath); err != nil {
		return err
	}

	statusf("Downloaded %s to %s\n", remotePath, localPath)

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	locals, remoteDir := args[:len(args)-1], args[len(args)-1]
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadedCfg.ParallelTransfers)

	for _, local := range locals {
		g.Go(func() error {
			dst := path.Join(remoteDir, filepath.Base(local))

			if err := client.UploadFile(gctx, local, dst, yadisk.WithOverwrite(overwrite)); err != nil {
				return fmt.Errorf("uploading %s: %w", local, err)
			}

			statusf("Uploaded %s to %s\n", local, dst)

			return nil
		})
	}

	return g.Wait()
}

func runRm(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	permanent, _ := cmd.Flags().GetBool("permanent")

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Remove(ctx, args[0], yadisk.WithPermanently(permanent)); err != nil {
		return err
	}

	if permanent {
		statusf("Deleted %s permanently\n", args[0])
	} else {
		statusf("Moved %s to the trash\n", args[0])
	}

	return nil
}

func runMkdir(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Mkdir(ctx, args[0]); err != nil {
		return err
	}

	statusf("Created %s\n", args[0])

	return nil
}

func runMv(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	overwrite, _ := cmd.Flags().GetBool("overwrite")

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Move(ctx, args[0], args[1], yadisk.WithOverwrite(overwrite)); err != nil {
		return err
	}

	statusf("Moved %s to %s\n", args[0], args[1])

	return nil
}

func runCp(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	overwrite, _ := cmd.Flags().GetBool("overwrite")

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Copy(ctx, args[0], args[1], yadisk.WithOverwrite(overwrite)); err != nil {
		return err
	}

	statusf("Copied %s to %s\n", args[0], args[1])

	return nil
}

func runPublish(cmd *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	revoke, _ := cmd.Flags().GetBool("revoke")

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	if revoke {
		if _, err := client.Unpublish(ctx, args[0]); err != nil {
			return err
		}

		statusf("Revoked public access to %s\n", args[0])

		return nil
	}

	if _, err := client.Publish(ctx, args[0]); err != nil {
		return err
	}

	// The publish response link points at the resource metadata; the public
	// URL comes from a follow-up metadata fetch.
	res, err := client.Meta(ctx, args[0], yadisk.WithFields("public_url"))
	if err != nil {
		return err
	}

	fmt.Println(res.PublicURL)

	return nil
}
