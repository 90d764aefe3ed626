package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yadisk-unofficial/yadisk-go"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display disk quota and usage",
		RunE:  runInfo,
	}
}

// infoOutput is the JSON schema for `info --json`.
type infoOutput struct {
	TotalSpace  int64 `json:"total_space"`
	UsedSpace   int64 `json:"used_space"`
	TrashSize   int64 `json:"trash_size"`
	MaxFileSize int64 `json:"max_file_size"`
	IsPaid      bool  `json:"is_paid"`
}

func runInfo(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, err := newClient(logger)
	if err != nil {
		return err
	}
	defer client.Close()

	disk, err := client.DiskInfo(ctx,
		yadisk.WithFields("total_space", "used_space", "trash_size", "max_file_size", "is_paid"))
	if err != nil {
		return err
	}

	if flagJSON {
		out := infoOutput{
			TotalSpace:  disk.TotalSpace,
			UsedSpace:   disk.UsedSpace,
			TrashSize:   disk.TrashSize,
			MaxFileSize: disk.MaxFileSize,
			IsPaid:      disk.IsPaid,
		}

		return json.NewEncoder(os.Stdout).Encode(out)
	}

	free := disk.TotalSpace - disk.UsedSpace

	fmt.Printf("Total:  %s\n", formatSize(disk.TotalSpace))
	fmt.Printf("Used:   %s\n", formatSize(disk.UsedSpace))
	fmt.Printf("Free:   %s\n", formatSize(free))
	fmt.Printf("Trash:  %s\n", formatSize(disk.TrashSize))

	return nil
}
