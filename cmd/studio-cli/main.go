package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fpang/gemini-studio/internal/chat"
	"github.com/fpang/gemini-studio/internal/cli"
	"github.com/fpang/gemini-studio/internal/config"
	"github.com/fpang/gemini-studio/internal/logging"
	"github.com/fpang/gemini-studio/internal/metrics"
	"github.com/fpang/gemini-studio/internal/workspace"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Global flags
var (
	envFileFlag    string
	modelFlag      string
	imageModelFlag string
	validateFlag   bool
	outputFlag     string
	compareFlag    string
)

// Tool flags
var (
	promptFlag   string
	strokeFlags  []string
	strokesFlag  string
	displayFlag  string
	brushFlag    int
	adjustFlags  = map[workspace.Param]*int{}
	positionFlag float64
)

var rootCmd = &cobra.Command{
	Use:   "studio-cli",
	Short: "Edit images and chat with Gemini from the terminal",
	Long: `Studio CLI runs the Gemini image studio tools on local files and opens
a chat session in the terminal.

Each image command loads one image, applies one tool and writes the result.

Examples:
  studio-cli enhance photo.jpg -p "Turn the sky into a sunset"
  studio-cli auto photo.jpg -o photo-auto.jpg
  studio-cli adjust photo.jpg --brightness 120 --temperature 80
  studio-cli remove photo.jpg --stroke "120,80 180,95 220,140"
  studio-cli remove photo.jpg --strokes mask.json --compare before-after.png
  studio-cli chat`,
	SilenceUsage: true,
}

var enhanceCmd = &cobra.Command{
	Use:   "enhance [image]",
	Short: "Edit an image with a free-text instruction",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := cli.NewPrompter(os.Stdin, os.Stdout)
		path := imageArg(p, args)
		prompt := promptFlag
		if !cmd.Flags().Changed("prompt") {
			prompt = p.Ask("Instruction", workspace.DefaultPrompt)
		}
		return runImage(cmd, job{input: path, events: enhanceEvents(prompt)})
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto [image]",
	Short: "Apply a one-shot professional enhancement",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := imageArg(cli.NewPrompter(os.Stdin, os.Stdout), args)
		return runImage(cmd, job{input: path, events: autoEvents()})
	},
}

var adjustCmd = &cobra.Command{
	Use:   "adjust [image]",
	Short: "Apply slider adjustments through Gemini",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := imageArg(cli.NewPrompter(os.Stdin, os.Stdout), args)
		values := make(map[workspace.Param]int)
		for p, v := range adjustFlags {
			if cmd.Flags().Changed(string(p)) {
				values[p] = *v
			}
		}
		return runImage(cmd, job{input: path, events: adjustEvents(values)})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [image]",
	Short: "Remove the objects under a painted mask",
	Long: `Remove paints a mask from strokes and asks Gemini to remove what is under it.

Strokes are given in display coordinates. The display defaults to the image's
own size, so points are image pixels unless --display is set.

  --stroke "x1,y1 x2,y2 ..."  one stroke; repeat for more
  --strokes mask.json         {"width":W,"height":H,"strokes":[{"width":30,"points":[{"x":1,"y":2}]}]}`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := imageArg(cli.NewPrompter(os.Stdin, os.Stdout), args)
		width, height, strokes, err := maskStrokes(path)
		if err != nil {
			return err
		}
		return runImage(cmd, job{input: path, events: removeEvents(width, height, strokes)})
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with Gemini in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(cmd, "studio-cli")
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client := cli.InitGeminiClient(ctx, cfg.Model, validateFlag)
		conv, err := chat.NewClient(client, cfg.Model).StartChat(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Type /quit to leave.")
		return chatLoop(ctx, conv, cli.NewPrompter(os.Stdin, os.Stdout), os.Stdout)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFileFlag, "env-file", ".env", "Dotenv file to load if present")
	pf.StringVarP(&modelFlag, "model", "m", chat.DefaultModelName, "Gemini model for chat")
	pf.StringVar(&imageModelFlag, "image-model", chat.DefaultImageModelName, "Gemini model for image editing")
	pf.BoolVar(&validateFlag, "validate-key", true, "Validate the API key before the first request")

	for _, c := range []*cobra.Command{enhanceCmd, autoCmd, adjustCmd, removeCmd} {
		c.Flags().StringVarP(&outputFlag, "output", "o", "", "Result file (default: gemini-studio-<timestamp>.<ext>)")
		c.Flags().StringVar(&compareFlag, "compare", "", "Also write a before/after comparison PNG to this path")
		c.Flags().Float64Var(&positionFlag, "position", workspace.DefaultComparatorPosition, "Comparison split position in percent")
	}

	enhanceCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Editing instruction (prompted when omitted)")

	for _, p := range workspace.Params {
		lo, hi, neutral, _ := workspace.Range(p)
		adjustFlags[p] = adjustCmd.Flags().Int(string(p), neutral, fmt.Sprintf("%s (%d to %d)", p, lo, hi))
	}

	removeCmd.Flags().StringArrayVar(&strokeFlags, "stroke", nil, `Stroke points "x1,y1 x2,y2 ..." (repeatable)`)
	removeCmd.Flags().StringVar(&strokesFlag, "strokes", "", "JSON file with the mask strokes")
	removeCmd.Flags().StringVar(&displayFlag, "display", "", "Display size WIDTHxHEIGHT the strokes refer to (default: image size)")
	removeCmd.Flags().IntVar(&brushFlag, "brush", workspace.DefaultBrushSize, "Brush size for --stroke")
	removeCmd.MarkFlagsMutuallyExclusive("stroke", "strokes")
	removeCmd.MarkFlagsOneRequired("stroke", "strokes")

	rootCmd.AddCommand(enhanceCmd, autoCmd, adjustCmd, removeCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup initializes logging and resolves configuration with flag overrides.
// Metrics are off unless STUDIO_METRICS names a destination, so stdout stays
// for results.
func setup(cmd *cobra.Command, service string) *config.Config {
	logging.Init()
	metrics.SetService(service)

	cfg, err := config.Load(envFileFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = modelFlag
	}
	if flags.Changed("image-model") {
		cfg.ImageModel = imageModelFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	closeMetrics, err := metrics.Open(cmp.Or(cfg.Metrics, "off"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open metrics output")
	}
	cobra.OnFinalize(func() { closeMetrics() })
	return cfg
}

// imageArg returns the image path argument, asking for it when missing.
func imageArg(p *cli.Prompter, args []string) string {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		path = p.Ask("Image path", "")
	}
	if path == "" {
		log.Fatal().Msg("No image given")
	}
	return cli.ResolveImagePath(path)
}

// maskStrokes collects the remove tool's strokes from --stroke or --strokes.
func maskStrokes(imagePath string) (int, int, []workspace.Stroke, error) {
	if strokesFlag != "" {
		f, err := os.Open(strokesFlag)
		if err != nil {
			return 0, 0, nil, err
		}
		defer f.Close()
		m, err := loadStrokeFile(f)
		if err != nil {
			return 0, 0, nil, err
		}
		return m.Width, m.Height, m.Strokes, nil
	}

	var width, height int
	var err error
	if displayFlag != "" {
		width, height, err = parseSize(displayFlag)
	} else {
		width, height, err = imageSize(imagePath)
	}
	if err != nil {
		return 0, 0, nil, err
	}

	strokes := make([]workspace.Stroke, 0, len(strokeFlags))
	for _, s := range strokeFlags {
		points, err := parseStroke(s)
		if err != nil {
			return 0, 0, nil, err
		}
		strokes = append(strokes, workspace.Stroke{Width: float64(brushFlag), Points: points})
	}
	return width, height, strokes, nil
}

// runImage applies the job and writes its outputs.
func runImage(cmd *cobra.Command, j job) error {
	if err := workspace.Validate(workspace.ComparatorMoved{Position: positionFlag}); err != nil {
		return fmt.Errorf("--position: %w", err)
	}
	cfg := setup(cmd, "studio-cli")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := cli.InitGeminiClient(ctx, cfg.ImageModel, validateFlag)
	svc := chat.NewImageService(client, cfg.ImageModel)

	start := time.Now()
	fmt.Printf("Applying %s...\n", cmd.Name())
	st, err := runJob(ctx, svc, j, cfg.MaxUploadBytes())
	if err != nil {
		if st.Error != "" {
			return errors.New(st.Error)
		}
		return err
	}

	path, err := writeResult(st, outputFlag, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s, %s)\n", path, cli.FormatBytes(len(st.Result.Data)), cli.FormatElapsed(time.Since(start)))

	if compareFlag != "" {
		if err := writeComparison(st, compareFlag, positionFlag); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", compareFlag)
	}

	return nil
}
