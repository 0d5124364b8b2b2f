package main

import (
	"io"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Config  string `short:"c" long:"config" default:"shooter.yaml" description:"Configuration file"`
	LogFile string `long:"log-file" description:"Also write log messages to this file, rotated at 10 MB"`

	Setup SetupCommand `command:"setup" description:"Find the pivot servo, calibrate it and wire up the outputs"`
	Run   RunCommand   `command:"run" alias:"drive" description:"Drive the shooter from the terminal"`
	Info  InfoCommand  `command:"info" description:"Show the configuration and tunables"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

// fileLog receives controller log lines when --log-file is set.
var fileLog *log.Logger

func setupLogging() {
	if opts.LogFile == "" {
		return
	}
	w := &lumberjack.Logger{
		Filename:   opts.LogFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, w))
	fileLog = log.New(w, "", log.LstdFlags)
}

func main() {
	parser.LongDescription = "Shooter - T-shirt cannon robot control CLI"
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		setupLogging()
		if cmd == nil {
			return nil
		}
		return cmd.Execute(args)
	}

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
