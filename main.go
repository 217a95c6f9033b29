package main

import (
	"flag"
	"fmt"
	"os"

	"bmp-steganography/bmp"
	"bmp-steganography/config"
	"bmp-steganography/handlers"
	"bmp-steganography/logging"
	"bmp-steganography/quality"
	"bmp-steganography/stego"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage() {
	name := "bmp-steganography"
	fmt.Fprintf(os.Stderr, "Usage: %s [-config file.yaml] <command> [args]\n", name)
	fmt.Fprintf(os.Stderr, "  %s encode <carrier.bmp> <secret-file> [output.bmp]   (or -e ...)\n", name)
	fmt.Fprintf(os.Stderr, "  %s decode <stego.bmp> [output-name]                 (or -d ...)\n", name)
	fmt.Fprintf(os.Stderr, "  %s capacity <carrier.bmp> [extension]\n", name)
	fmt.Fprintf(os.Stderr, "  %s config <file.yaml>\n", name)
	fmt.Fprintf(os.Stderr, "  %s serve\n", name)
}

func run(args []string) int {
	fs := flag.NewFlagSet("bmp-steganography", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to YAML configuration (default $"+config.EnvConfigPath+")")
	encodeMode := fs.Bool("e", false, "Encode, same as the encode command")
	decodeMode := fs.Bool("d", false, "Decode, same as the decode command")
	fs.Usage = usage
	if err := fs.Parse(args); err != nil {
		return stego.ExitCode(stego.ErrInputValidation)
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return stego.ExitCode(stego.ErrInputValidation)
	}

	log, err := logging.New(conf.Log.Level, conf.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return stego.ExitCode(stego.ErrInputValidation)
	}
	defer log.Sync()
	stego.SetLogger(log)

	rest := fs.Args()
	var command string
	switch {
	case *encodeMode && *decodeMode:
		usage()
		fmt.Fprintln(os.Stderr, "Error: -e and -d are mutually exclusive")
		return stego.ExitCode(stego.ErrInputValidation)
	case *encodeMode:
		command = "encode"
	case *decodeMode:
		command = "decode"
	case len(rest) == 0:
		usage()
		return stego.ExitCode(stego.ErrInputValidation)
	default:
		command, rest = rest[0], rest[1:]
	}

	switch command {
	case "encode":
		err = runEncode(conf, log, rest)
	case "decode":
		err = runDecode(conf, rest)
	case "capacity":
		err = runCapacity(conf, rest)
	case "config":
		err = runConfig(conf, rest)
	case "serve":
		err = runServe(conf, log)
	default:
		usage()
		err = &stego.Error{Kind: stego.KindInputValidation, Detail: fmt.Sprintf("unknown command %q", command)}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return stego.ExitCode(err)
	}
	return 0
}

func missingArgs(op, detail string) error {
	usage()
	return &stego.Error{Kind: stego.KindInputValidation, Op: op, Detail: detail}
}

func runEncode(conf *config.Config, log *zap.Logger, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return missingArgs("encode", "expected <carrier.bmp> <secret-file> [output.bmp]")
	}
	carrierPath, secretPath := args[0], args[1]

	requested := ""
	if len(args) == 3 {
		requested = args[2]
	}
	outPath, fellBack := stego.StegoOutputName(requested, conf.DefaultStegoName)
	if fellBack {
		if requested == "" {
			log.Info("output file not given, using default", zap.String("output", outPath))
		} else {
			log.Warn("output file is not a .bmp file, using default",
				zap.String("requested", requested),
				zap.String("output", outPath))
		}
	}

	report, err := stego.EncodeFile(conf.StegoConfig(), carrierPath, secretPath, outPath)
	if err != nil {
		return err
	}

	if conf.ReportPSNR {
		carrier, cerr := os.ReadFile(carrierPath)
		stegoImage, serr := os.ReadFile(outPath)
		if cerr == nil && serr == nil {
			report.PSNR = quality.Measure(carrier, stegoImage, bmp.HeaderSize)
			log.Info("stego image quality", zap.Float64("psnr_db", report.PSNR))
			if !quality.ValidatePSNR(report.PSNR, conf.MinPSNR) {
				log.Warn("stego image below PSNR threshold",
					zap.Float64("psnr_db", report.PSNR),
					zap.Float64("min_psnr", conf.MinPSNR))
			}
		}
	}

	fmt.Printf("Encoded %s into %s (%d of %d carrier bytes used)\n",
		secretPath, outPath, report.RequiredBits, report.Capacity)
	return nil
}

func runDecode(conf *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return missingArgs("decode", "expected <stego.bmp> [output-name]")
	}
	outBase := conf.DefaultOutputName
	if len(args) == 2 {
		outBase = args[1]
	}

	report, err := stego.DecodeFile(conf.StegoConfig(), args[0], outBase)
	if err != nil {
		return err
	}

	fmt.Printf("Decoded %d bytes from %s into %s\n", report.SecretSize, args[0], report.OutputPath)
	return nil
}

func runCapacity(conf *config.Config, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return missingArgs("capacity", "expected <carrier.bmp> [extension]")
	}
	if !stego.IsBitmapName(args[0]) {
		return &stego.Error{Kind: stego.KindInputValidation, Op: "capacity", Detail: args[0] + " must be a .bmp file"}
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return &stego.Error{Kind: stego.KindIO, Op: "read " + args[0], Cause: err}
	}
	info, _, err := bmp.Inspect(data)
	if err != nil {
		return &stego.Error{Kind: stego.KindInputValidation, Op: "capacity", Cause: err}
	}

	extnLen := conf.MaxExtensionLen
	if len(args) == 2 {
		extnLen = len(args[1])
	}
	capacity := min(info.Capacity, max(int64(len(data))-bmp.HeaderSize, 0))

	fmt.Printf("Image:        %dx%d, %d-bit\n", info.Width, info.Height, info.BitCount)
	if info.Decodable {
		fmt.Printf("Decodable:    yes\n")
	} else {
		fmt.Printf("Decodable:    no (%s)\n", info.DecodeErr)
	}
	fmt.Printf("Capacity:     %d carrier bytes\n", capacity)
	fmt.Printf("Pixel array:  %d bytes (row padded)\n", info.PixelBytes)
	fmt.Printf("Max secret:   %d bytes\n", stego.MaxSecretSize(capacity, len(conf.Signature), extnLen))
	return nil
}

// runConfig writes the effective configuration, defaults and overrides included.
func runConfig(conf *config.Config, args []string) error {
	if len(args) != 1 {
		return missingArgs("config", "expected <file.yaml>")
	}
	if err := config.Save(args[0], conf); err != nil {
		return &stego.Error{Kind: stego.KindIO, Op: "write " + args[0], Cause: err}
	}
	fmt.Printf("Wrote configuration to %s\n", args[0])
	return nil
}

func runServe(conf *config.Config, log *zap.Logger) error {
	if conf.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := handlers.NewRouter(conf, log)
	if err != nil {
		return &stego.Error{Kind: stego.KindInputValidation, Op: "serve", Cause: err}
	}

	log.Info("server starting", zap.String("address", conf.Server.Address))
	log.Info("API endpoints",
		zap.Strings("routes", []string{
			"POST /api/v1/stego/encode   - Hide a secret file in a BMP (returns stego BMP)",
			"POST /api/v1/stego/decode   - Recover a secret file from a stego BMP",
			"POST /api/v1/stego/capacity - Report carrier capacity",
			"GET  /api/v1/health         - Health check",
		}))

	if err := router.Run(conf.Server.Address); err != nil {
		return &stego.Error{Kind: stego.KindIO, Op: "serve", Cause: err}
	}
	return nil
}
