package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/semcube/convert"
	"github.com/c360studio/semcube/graph"
	"github.com/c360studio/semcube/profile"
)

func convertCmd(flags *globalFlags) *cobra.Command {
	var (
		profilePath string
		inputPath   string
		root        string
		pretty      bool
		diagnostics bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Project one node of an N-Triples file into a JSON document",
		Example: `  semcube convert --profile people.yaml --input people.nt --root http://example.org/P1 --pretty
  cat people.nt | semcube convert --profile people.yaml --input - --root http://example.org/P1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if profilePath == "" {
				profilePath = cfg.Profile
			}
			if profilePath == "" {
				return fmt.Errorf("no profile: pass --profile or set profile in the config")
			}

			if diagnostics {
				cfg.Conversion.LogIssues = true
			}

			prof, err := profile.LoadFromFile(profilePath)
			if err != nil {
				return err
			}
			converter, err := convert.New(cfg.Conversion, prof, convert.WithLogger(logger))
			if err != nil {
				return err
			}

			g, err := readGraph(cmd.InOrStdin(), inputPath)
			if err != nil {
				return err
			}
			logger.Debug("Graph loaded", "facts", g.Len(), "input", inputPath)

			doc, err := converter.Convert(g, root)
			if err != nil {
				return err
			}

			var data []byte
			if pretty {
				data, err = doc.MarshalIndent()
			} else {
				data, err = doc.Marshal()
				data = append(data, '\n')
			}
			if err != nil {
				return fmt.Errorf("marshal document: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&profilePath, "profile", "p", "", "Schema profile YAML (default: profile from config)")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "-", "N-Triples input file, - for stdin")
	cmd.Flags().StringVarP(&root, "root", "r", "", "URI of the node to project")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Log unreached typed nodes and unconsumed facts")
	_ = cmd.MarkFlagRequired("root")

	return cmd
}

// readGraph reads N-Triples from path, or from stdin when path is "-".
func readGraph(stdin io.Reader, path string) (*graph.Graph, error) {
	if path == "-" || path == "" {
		return graph.ReadNTriples(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	g, err := graph.ReadNTriples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
