// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2024 The Vertcoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"unicode"

	flags "github.com/jessevdk/go-flags"
	"github.com/vertcoin-project/vtcd/blockchain"
	"github.com/vertcoin-project/vtcd/chaincfg"
	"github.com/vertcoin-project/vtcd/crypto/verthash"
	"github.com/vertcoin-project/vtcd/internal/version"
)

const (
	defaultConfigFilename = "vtcd.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "vtcd.log"
	defaultLogSize        = "10M"
	defaultVerthashMode   = "mmap"
	defaultMiningWorkers  = 1
)

var (
	defaultHomeDir    = appDataDir("vtcd", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(defaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// config defines the configuration options for vtcd.
//
// See loadConfig for details on the configuration load process.
type config struct {
	// General application behavior.
	ShowVersion   bool   `short:"V" long:"version" description:"Display version information and exit"`
	HomeDir       string `short:"A" long:"appdata" description:"Path to application home directory"`
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir       string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir        string `long:"logdir" description:"Directory to log output"`
	LogSize       string `long:"logsize" description:"Maximum size of log file before it is rotated"`
	NoFileLogging bool   `long:"nofilelogging" description:"Disable file logging"`
	DebugLevel    string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	// Network settings.
	TestNet bool `long:"testnet" description:"Use the test network"`
	RegNet  bool `long:"regtest" description:"Use the regression test network"`

	// Verthash data file settings.
	VerthashFile       string `long:"verthashfile" description:"Path to the Verthash data file (default: <datadir>/verthash.dat)"`
	VerthashMode       string `long:"verthashmode" description:"How the Verthash data file is accessed while hashing {mem, mmap, file}"`
	GenVerthash        bool   `long:"genverthash" description:"Generate the Verthash data file when it does not exist"`
	SkipVerthashVerify bool   `long:"skipverthashverify" description:"Do not verify the digest of the Verthash data file when loading it"`

	// Header chain settings.
	ImportHeaders string `long:"importheaders" description:"Import consecutive raw 80-byte block headers from the given file"`
	PowCacheSize  uint32 `long:"powcachesize" description:"The maximum number of proof-of-work hashes to cache"`

	// Mining settings.
	Generate      uint32 `long:"generate" description:"Generate (mine) the given number of headers on startup -- Only supported on the regression test network"`
	MiningWorkers int32  `long:"miningworkers" description:"Number of CPU mining workers -- A negative value uses one per processor core"`

	// Metrics settings.
	MetricsListen string `long:"metricslisten" description:"Serve Prometheus metrics at /metrics on the given [addr:]port"`

	// The following fields are derived from the above fields by loadConfig.
	params          *chaincfg.Params
	verthashMode    verthash.LoadMode
	logSizeKiB      int64
	configFileFound bool
}

// errSuppressUsage signifies that an error that happened during the initial
// configuration phase should suppress the usage output since it was not caused
// by the user.
type errSuppressUsage string

// Error implements the error interface.
func (e errSuppressUsage) Error() string {
	return string(e)
}

// appDataDir returns an operating system specific directory to be used for
// storing application data for an application.  The appName parameter is
// lowercased and its first character is uppercased on Windows and macOS and
// prefixed with a period on other POSIX systems.
func appDataDir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	// The caller really shouldn't prepend the appName with a period, but
	// if they do, handle it gracefully by trimming it.
	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	appNameLower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]

	// Get the OS specific home directory via the Go standard lib.
	var homeDir string
	if usr, err := user.Current(); err == nil {
		homeDir = usr.HomeDir
	}

	// Fall back to standard HOME environment variable that works
	// for most POSIX OSes if the directory from the Go standard
	// lib failed.
	if homeDir == "" {
		homeDir = os.Getenv("HOME")
	}

	switch runtime.GOOS {
	case "windows":
		// Attempt to use the LOCALAPPDATA or APPDATA environment variable on
		// Windows.
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}

	case "darwin":
		if homeDir != "" {
			return filepath.Join(homeDir, "Library", "Application Support",
				appNameUpper)
		}

	case "plan9":
		if homeDir != "" {
			return filepath.Join(homeDir, appNameLower)
		}

	default:
		if homeDir != "" {
			return filepath.Join(homeDir, "."+appNameLower)
		}
	}

	// Fall back to the current directory if all else fails.
	return "."
}

// cleanAndExpandPath expands environment variables and leading ~ in the passed
// path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Nothing to do when no path is given.
	if path == "" {
		return path
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows cmd.exe-style
	// %VARIABLE%, but the variables can still be expanded via POSIX-style
	// $VARIABLE.
	path = os.ExpandEnv(path)

	if !strings.HasPrefix(path, "~") {
		return filepath.Clean(path)
	}

	// Expand initial ~ to the current user's home directory, or ~otheruser to
	// otheruser's home directory.  On Windows, both forward and backward
	// slashes can be used.
	path = path[1:]

	var pathSeparators string
	if runtime.GOOS == "windows" {
		pathSeparators = string(os.PathSeparator) + "/"
	} else {
		pathSeparators = string(os.PathSeparator)
	}

	userName := ""
	if i := strings.IndexAny(path, pathSeparators); i != -1 {
		userName = path[:i]
		path = path[i:]
	}

	homeDir := ""
	var u *user.User
	var err error
	if userName == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(userName)
	}
	if err == nil {
		homeDir = u.HomeDir
	}
	// Fallback to CWD if user lookup fails or user has no home directory.
	if homeDir == "" {
		homeDir = "."
	}

	return filepath.Join(homeDir, path)
}

// parseLogSize parses a log size with an optional K, M, or G suffix into
// kibibytes.  A size without a suffix is in kibibytes.
func parseLogSize(logSize string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(logSize))
	s = strings.TrimSuffix(s, "B")
	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "G"):
		multiplier = 1 << 20
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 10
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "K"):
		s = s[:len(s)-1]
	}
	size, err := strconv.ParseInt(s, 10, 64)
	if err != nil || size <= 0 {
		return 0, fmt.Errorf("invalid log size %q", logSize)
	}
	return size * multiplier, nil
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *config, options flags.Options) *flags.Parser {
	return flags.NewParser(cfg, options)
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in vtcd functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options.  Command line options always take precedence.
func loadConfig(appName string, args []string) (*config, []string, error) {
	// Default config.
	cfg := config{
		HomeDir:       defaultHomeDir,
		ConfigFile:    defaultConfigFile,
		DebugLevel:    defaultLogLevel,
		DataDir:       defaultDataDir,
		LogDir:        defaultLogDir,
		LogSize:       defaultLogSize,
		VerthashMode:  defaultVerthashMode,
		PowCacheSize:  blockchain.DefaultPowCacheSize,
		MiningWorkers: defaultMiningWorkers,
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Any errors aside from the
	// help message error can be ignored here since they will be caught by
	// the final parse below.
	preCfg := cfg
	preParser := newConfigParser(&preCfg, flags.HelpFlag)
	_, err := preParser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n", appName,
			version.Full(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Update the home directory for vtcd if specified.  Since the home
	// directory is updated, other variables need to be updated to reflect
	// the new changes.
	if preCfg.HomeDir != defaultHomeDir {
		cfg.HomeDir = cleanAndExpandPath(preCfg.HomeDir)

		if preCfg.ConfigFile == defaultConfigFile {
			defaultConfigFile = filepath.Join(cfg.HomeDir,
				defaultConfigFilename)
			preCfg.ConfigFile = defaultConfigFile
			cfg.ConfigFile = defaultConfigFile
		} else {
			cfg.ConfigFile = preCfg.ConfigFile
		}
		if preCfg.DataDir == defaultDataDir {
			cfg.DataDir = filepath.Join(cfg.HomeDir, defaultDataDirname)
		} else {
			cfg.DataDir = preCfg.DataDir
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
		} else {
			cfg.LogDir = preCfg.LogDir
		}
	}

	// Load additional config from file.  A missing config file at the
	// default location is not an error.
	parser := newConfigParser(&cfg, flags.Default)
	configFile := cleanAndExpandPath(preCfg.ConfigFile)
	err = flags.NewIniParser(parser).ParseFile(configFile)
	switch {
	case err == nil:
		cfg.configFileFound = true

	case errors.Is(err, fs.ErrNotExist) && preCfg.ConfigFile == defaultConfigFile:

	default:
		var e *flags.Error
		if !errors.As(err, &e) {
			err = fmt.Errorf("error parsing config file: %w", err)
		}
		return nil, nil, err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	// Multiple networks can't be selected simultaneously.
	funcName := "loadConfig"
	numNets := 0
	cfg.params = chaincfg.MainNetParams()
	if cfg.TestNet {
		numNets++
		cfg.params = chaincfg.TestNetParams()
	}
	if cfg.RegNet {
		numNets++
		cfg.params = chaincfg.RegNetParams()
	}
	if numNets > 1 {
		str := "%s: the testnet and regtest params can't be used together " +
			"-- choose one of the two"
		err := fmt.Errorf(str, funcName)
		return nil, nil, err
	}

	// Append the network type to the data and log directories so they are
	// "namespaced" per network.  In addition to the block database, there are
	// other pieces of data that are saved to disk such as the Verthash data
	// file, so it's useful to have each network in its own directory.
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.params.Name)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.params.Name)

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %w", funcName, err)
		return nil, nil, err
	}

	cfg.logSizeKiB, err = parseLogSize(cfg.LogSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", funcName, err)
	}

	// Initialize log rotation.  After the log rotation has been initialized,
	// the logger variables may be used.
	if !cfg.NoFileLogging {
		logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
		if err := initLogRotator(logFile, cfg.logSizeKiB); err != nil {
			return nil, nil, errSuppressUsage(err.Error())
		}
	}

	// The Verthash data file lives in the network data directory by default.
	if cfg.VerthashFile == "" {
		cfg.VerthashFile = filepath.Join(cfg.DataDir, verthash.DatFileName)
	} else {
		cfg.VerthashFile = cleanAndExpandPath(cfg.VerthashFile)
	}
	cfg.verthashMode, err = verthash.ParseLoadMode(cfg.VerthashMode)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", funcName, err)
	}

	// Headers can only be generated on networks that permit it.
	if cfg.Generate > 0 && !cfg.params.GenerateSupported {
		str := "%s: generating headers is not supported on %s -- use " +
			"--regtest"
		err := fmt.Errorf(str, funcName, cfg.params.Name)
		return nil, nil, err
	}

	if cfg.PowCacheSize == 0 {
		str := "%s: the proof-of-work cache size must be positive"
		err := fmt.Errorf(str, funcName)
		return nil, nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid options.
	// Note this should go directly before the return.
	if !cfg.configFileFound && !cfg.NoFileLogging {
		vtcdLog.Debugf("No config file found at %s; using defaults",
			configFile)
	}

	return &cfg, remainingArgs, nil
}
