// Command minify shrinks the templates and static assets served in
// production. The server picks up dist/ when it exists.
//
//	go run ./cmd/minify all
//	go run ./cmd/minify file --input static/css/style.css --output dist/static/css/style.css
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

const (
	mimeCSS  = "text/css"
	mimeHTML = "text/html"
	mimeJS   = "application/javascript"
)

// mediaTypes maps file extensions and --type values to minifier media types.
var mediaTypes = map[string]string{
	"css":  mimeCSS,
	"html": mimeHTML,
	"js":   mimeJS,
}

var rootCmd = &cobra.Command{
	Use:          "minify",
	Short:        "Minify Frazludo templates and static assets",
	SilenceUsage: true,
}

var (
	fileInput  string
	fileOutput string
	fileType   string
)

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Minify a single CSS, JS or HTML file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mediaType, ok := mediaTypes[strings.ToLower(fileType)]
		if !ok {
			return fmt.Errorf("unsupported file type %q (supported: css, js, html)", fileType)
		}
		before, after, err := minifyFile(newMinifier(), fileInput, fileOutput, mediaType)
		if err != nil {
			return err
		}
		report(cmd, fileInput, before, after)
		return nil
	},
}

var (
	templatesDir string
	staticDir    string
	outDir       string
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Minify every template and static asset into the dist directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m := newMinifier()
		for _, dir := range []string{templatesDir, staticDir} {
			if err := minifyTree(cmd, m, dir, filepath.Join(outDir, filepath.Base(dir))); err != nil {
				return fmt.Errorf("minify %s: %w", dir, err)
			}
		}
		cmd.Printf("Minified files are in %s\n", outDir)
		return nil
	},
}

func init() {
	fileCmd.Flags().StringVarP(&fileInput, "input", "i", "", "input file path")
	fileCmd.Flags().StringVarP(&fileOutput, "output", "o", "", "output file path")
	fileCmd.Flags().StringVarP(&fileType, "type", "t", "", "file type (css, js or html)")
	_ = fileCmd.MarkFlagRequired("input")
	_ = fileCmd.MarkFlagRequired("output")
	_ = fileCmd.MarkFlagRequired("type")

	allCmd.Flags().StringVar(&templatesDir, "templates", "templates", "templates directory")
	allCmd.Flags().StringVar(&staticDir, "static", "static", "static assets directory")
	allCmd.Flags().StringVar(&outDir, "out", "dist", "output directory")

	rootCmd.AddCommand(fileCmd, allCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(mimeCSS, css.Minify)
	m.AddFunc(mimeHTML, html.Minify)
	m.AddFunc(mimeJS, js.Minify)
	return m
}

// minifyTree minifies every css, js and html file under src into dst,
// keeping relative paths. Other files are skipped.
func minifyTree(cmd *cobra.Command, m *minify.M, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		mediaType, ok := mediaTypes[strings.TrimPrefix(filepath.Ext(path), ".")]
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		before, after, err := minifyFile(m, path, filepath.Join(dst, rel), mediaType)
		if err != nil {
			return err
		}
		report(cmd, path, before, after)
		return nil
	})
}

// minifyFile writes the minified src to dst and returns both sizes.
func minifyFile(m *minify.M, src, dst, mediaType string) (int, int, error) {
	input, err := os.ReadFile(src)
	if err != nil {
		return 0, 0, err
	}
	minified, err := m.Bytes(mediaType, input)
	if err != nil {
		return 0, 0, fmt.Errorf("minify %s: %w", src, err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, 0, err
	}
	if err := os.WriteFile(dst, minified, 0o644); err != nil {
		return 0, 0, err
	}
	return len(input), len(minified), nil
}

func report(cmd *cobra.Command, path string, before, after int) {
	ratio := 0.0
	if before > 0 {
		ratio = float64(before-after) / float64(before) * 100
	}
	cmd.Printf("%s: %d bytes -> %d bytes (%.1f%% reduction)\n", path, before, after, ratio)
}
