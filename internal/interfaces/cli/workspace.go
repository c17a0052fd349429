package cli

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/modelseed/kbutil/pkg/workspace"
)

const fbaModelType = "KBaseFBA.FBAModel"

func newWorkspaceCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Move objects between KBase workspaces and local files",
	}
	cmd.AddCommand(
		newWorkspaceGetCommand(root),
		newWorkspacePushCommand(root),
		newWorkspaceListCommand(root),
	)
	return cmd
}

func workspaceClient(tk *toolkit) *workspace.Client {
	opts := []workspace.Option{
		workspace.WithBaseURL(tk.cfg.Workspace.BaseURL),
	}
	if tk.cfg.Workspace.Token != "" {
		opts = append(opts, workspace.WithToken(tk.cfg.Workspace.Token))
	}
	if tk.cfg.Workspace.Timeout > 0 {
		opts = append(opts, workspace.WithHTTPClient(&http.Client{Timeout: tk.cfg.Workspace.Timeout}))
	}
	return workspace.NewClient(opts...)
}

func newWorkspaceGetCommand(root *rootOptions) *cobra.Command {
	var ref, outPath string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Download a workspace object to a local JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			var data json.RawMessage
			info, err := workspaceClient(tk).GetObject(cmd.Context(), workspace.ObjectRef{Ref: ref}, &data)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return err
			}
			return printJSON(info)
		},
	}

	cmd.Flags().StringVar(&ref, "ref", "", "object reference, e.g. 12345/6/7 (required)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output JSON path (required)")
	cmd.MarkFlagRequired("ref")
	cmd.MarkFlagRequired("out")
	return cmd
}

func newWorkspacePushCommand(root *rootOptions) *cobra.Command {
	var wsName, objName, objType, inPath string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Save a local JSON file as a workspace object",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(inPath)
			if err != nil {
				return err
			}
			info, err := workspaceClient(tk).SaveObject(cmd.Context(), wsName, objName, objType, json.RawMessage(raw))
			if err != nil {
				return err
			}
			return printJSON(info)
		},
	}

	cmd.Flags().StringVarP(&wsName, "workspace", "w", "", "workspace name (required)")
	cmd.Flags().StringVar(&objName, "name", "", "object name (required)")
	cmd.Flags().StringVar(&objType, "type", fbaModelType, "workspace object type")
	cmd.Flags().StringVarP(&inPath, "in", "i", "", "input JSON path (required)")
	cmd.MarkFlagRequired("workspace")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("in")
	return cmd
}

func newWorkspaceListCommand(root *rootOptions) *cobra.Command {
	var wsName, objType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the objects of a workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := root.bootstrap()
			if err != nil {
				return err
			}
			infos, err := workspaceClient(tk).ListObjects(cmd.Context(), wsName, objType)
			if err != nil {
				return err
			}
			return printJSON(infos)
		},
	}

	cmd.Flags().StringVarP(&wsName, "workspace", "w", "", "workspace name (required)")
	cmd.Flags().StringVar(&objType, "type", "", "filter by object type")
	cmd.MarkFlagRequired("workspace")
	return cmd
}
