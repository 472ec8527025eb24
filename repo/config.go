package repo

import (
	"fmt"
	"github.com/btcsuite/btcutil"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/version"
	iwallet "github.com/cpacia/wallet-interface"
	"github.com/jessevdk/go-flags"
	"github.com/natefinch/lumberjack"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// DefaultConfigFilename is the name of the config file in the data
// directory.
const DefaultConfigFilename = "bouncer.conf"

const (
	defaultLogDirname  = "logs"
	defaultLogFilename = "bouncer.log"
	stopFilename       = "stop"
)

// Lock policies control whether the bouncer unlocks and locks the wallet
// itself.
const (
	// LockPolicyExternal never touches the wallet lock. The operator
	// is expected to keep the wallet unlocked.
	LockPolicyExternal = "external"

	// LockPolicySession unlocks the wallet at start and locks it again
	// on exit.
	LockPolicySession = "session"

	// LockPolicyBracket unlocks the wallet before and locks it after
	// every receive and send.
	LockPolicyBracket = "bracket"
)

var (
	// DefaultHomeDir is the OS specific default data directory.
	DefaultHomeDir = btcutil.AppDataDir("bouncer", false)

	defaultConfigFile = filepath.Join(DefaultHomeDir, DefaultConfigFilename)
	defaultLogDir     = filepath.Join(DefaultHomeDir, defaultLogDirname)

	fileLogFormat   = logging.MustStringFormatter(`%{time:2006-01-02T15:04:05} [%{level}] [%{module}] %{message}`)
	stdoutLogFormat = logging.MustStringFormatter(`%{color:reset}%{color}%{time:15:04:05.000} [%{level}] [%{module}] %{message}`)
)

// Config defines the configuration options for the bouncer.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	ShowVersion    bool          `short:"v" long:"version" description:"Display version information and exit"`
	ConfigFile     string        `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir        string        `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir         string        `long:"logdir" description:"Directory to log output."`
	LogLevel       string        `short:"l" long:"loglevel" description:"set the logging level [debug, info, notice, warning, error, critical]" default:"info"`
	RPCProtocol    string        `long:"rpcprotocol" env:"RAI_PROTOCOL" description:"Protocol used to reach the node RPC" default:"http"`
	RPCHost        string        `long:"rpchost" env:"RAI_HOST" description:"Host of the node RPC" default:"[::1]"`
	RPCPort        string        `long:"rpcport" env:"RAI_PORT" description:"Port of the node RPC" default:"7076"`
	RPCTimeout     time.Duration `long:"rpctimeout" description:"Timeout applied to every node RPC" default:"30s"`
	Wallet         string        `short:"w" long:"wallet" description:"The wallet id holding the watched accounts"`
	WalletPassword string        `long:"walletpassword" env:"RAI_WALLET_PASSWORD" description:"Password used to unlock the wallet"`
	Accounts       []string      `short:"a" long:"account" description:"An account to watch. May be repeated."`
	Destination    string        `short:"d" long:"destination" description:"Account received funds are forwarded to. If empty funds are sent back to their source."`
	Threshold      string        `long:"threshold" description:"Ignore pending transfers smaller than this amount of raw" default:"0"`
	AliveInterval  time.Duration `long:"aliveinterval" description:"How often each watcher logs that it is alive" default:"60m"`
	PollInterval   time.Duration `long:"pollinterval" description:"Delay between pending checks when nothing was received" default:"5s"`
	LockPolicy     string        `long:"lockpolicy" description:"Who manages the wallet lock [external, session, bracket]" choice:"external" choice:"session" choice:"bracket" default:"session"`
	Continuous     bool          `long:"continuous" description:"Keep watching after a transfer was forwarded"`
	ForwardRetries uint          `long:"forwardretries" description:"Number of attempts made to forward received funds" default:"3"`
	APIAddr        string        `long:"apiaddr" description:"Address of the status API. Empty disables it." default:"127.0.0.1:7080"`
	APIUser        string        `long:"apiuser" description:"Username for basic auth on the status API"`
	APIPass        string        `long:"apipass" description:"Hex encoded sha256 of the status API password"`
	APIAllowedIPs  []string      `long:"apiallowedip" description:"Only allow the status API to be reached from these IPs. May be repeated."`
}

// RPCEndpoint returns the URL of the node RPC.
func (cfg *Config) RPCEndpoint() string {
	return fmt.Sprintf("%s://%s:%s", cfg.RPCProtocol, cfg.RPCHost, cfg.RPCPort)
}

// StopFile returns the path of the sentinel file which stops every watcher
// when it is created.
func (cfg *Config) StopFile() string {
	return filepath.Join(cfg.DataDir, stopFilename)
}

// Validate checks the options which go-flags cannot check by itself.
func (cfg *Config) Validate() error {
	for _, account := range cfg.Accounts {
		if !models.IsValidAccountID(account) {
			return fmt.Errorf("invalid account %q", account)
		}
	}
	if cfg.Destination != "" && !models.IsValidAccountID(cfg.Destination) {
		return fmt.Errorf("invalid destination %q", cfg.Destination)
	}
	threshold, ok := models.ParseTransferAmount(cfg.Threshold)
	if !ok || threshold.Cmp(iwallet.NewAmount(0)) < 0 {
		return fmt.Errorf("invalid threshold %q", cfg.Threshold)
	}
	switch cfg.LockPolicy {
	case LockPolicyExternal, LockPolicySession, LockPolicyBracket:
	default:
		return fmt.Errorf("invalid lock policy %q", cfg.LockPolicy)
	}
	if cfg.PollInterval <= 0 {
		return errors.New("pollinterval must be positive")
	}
	if cfg.RPCTimeout <= 0 {
		return errors.New("rpctimeout must be positive")
	}
	if cfg.ForwardRetries == 0 {
		return errors.New("forwardretries must be at least one")
	}
	return nil
}

// LoadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// Environment variables are applied to options which carry an env tag and
// were not set in the config file or on the command line.
func LoadConfig() (*Config, []string, error) {
	// Default config.
	cfg := Config{
		DataDir:    DefaultHomeDir,
		ConfigFile: defaultConfigFile,
		LogDir:     defaultLogDir,
	}

	// Pre-parse the command line options to see if an alternative config
	// file, data directory or the version flag was specified. Any errors
	// aside from the help message error can be ignored here since they
	// will be caught by the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.IgnoreUnknown)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil, nil, err
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.String())
		os.Exit(0)
	}

	// A custom data directory moves the config file and logs with it
	// unless they were set explicitly.
	preCfg.DataDir = cleanAndExpandPath(preCfg.DataDir)
	if preCfg.DataDir != DefaultHomeDir {
		if preCfg.ConfigFile == defaultConfigFile {
			preCfg.ConfigFile = filepath.Join(preCfg.DataDir, DefaultConfigFilename)
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(preCfg.DataDir, defaultLogDirname)
		}
	}
	preCfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)

	// Load additional config from file.
	var configFileError error
	parser := flags.NewParser(&cfg, flags.Default|flags.IgnoreUnknown)
	if _, err := os.Stat(preCfg.ConfigFile); os.IsNotExist(err) {
		err := CreateDefaultConfigFile(preCfg.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating a "+
				"default config file: %v\n", err)
		}
	}

	// Failures past this point still reach the log file of the
	// directory the config pointed at.
	fail := func(err error) (*Config, []string, error) {
		SetupLogging(cleanAndExpandPath(cfg.LogDir), cfg.LogLevel)
		return nil, nil, err
	}

	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintf(os.Stderr, "Error parsing config "+
				"file: %v\n", err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return fail(err)
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			return nil, nil, err
		}
		fmt.Fprintln(os.Stderr, usageMessage)
		return fail(err)
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.ConfigFile = preCfg.ConfigFile

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usageMessage)
		return fail(err)
	}

	SetupLogging(cfg.LogDir, cfg.LogLevel)

	// Warn about missing config file only after all other configuration is
	// done. This prevents the warning on help messages and invalid
	// options. Note this should go directly before the return.
	if configFileError != nil {
		log.Warningf("%v", configFileError)
	}
	return &cfg, remainingArgs, nil
}

// CreateDefaultConfigFile writes the sample config to the given destination
// path. The wallet password is left out on purpose so that it can be
// supplied through the environment.
func CreateDefaultConfigFile(destinationPath string) error {
	// Create the destination directory if it does not exists
	err := os.MkdirAll(filepath.Dir(destinationPath), 0700)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(destinationPath, []byte(sampleConfig), 0600)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// SetupLogging installs a stdout backend and, if logDir is not empty, a
// rotating file backend for every logger in the process.
func SetupLogging(logDir, logLevel string) {
	backendStdout := logging.NewLogBackend(os.Stdout, "", 0)
	backendStdoutFormatter := logging.NewBackendFormatter(backendStdout, stdoutLogFormat)

	if logDir != "" {
		rotator := &lumberjack.Logger{
			Filename:   path.Join(logDir, defaultLogFilename),
			MaxSize:    10, // Megabytes
			MaxBackups: 3,
			MaxAge:     30, // Days
		}

		backendFile := logging.NewLogBackend(rotator, "", 0)
		backendFileFormatter := logging.NewBackendFormatter(backendFile, fileLogFormat)
		logging.SetBackend(backendStdoutFormatter, backendFileFormatter)
	} else {
		logging.SetBackend(backendStdoutFormatter)
	}

	logging.SetLevel(ParseLogLevel(logLevel), "")
}

// ParseLogLevel maps a level name to a logging level. Unknown names map
// to INFO.
func ParseLogLevel(logLevel string) logging.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return logging.DEBUG
	case "info":
		return logging.INFO
	case "notice":
		return logging.NOTICE
	case "warning":
		return logging.WARNING
	case "error":
		return logging.ERROR
	case "critical":
		return logging.CRITICAL
	default:
		return logging.INFO
	}
}

const sampleConfig = `[Application Options]

; Wallet node RPC. RAI_PROTOCOL, RAI_HOST and RAI_PORT override the defaults.
; rpcprotocol=http
; rpchost=[::1]
; rpcport=7076
; rpctimeout=30s

; The wallet holding the watched accounts. The password is best supplied
; with the RAI_WALLET_PASSWORD environment variable.
; wallet=
; walletpassword=

; Accounts to watch. Repeat the option for more than one account.
; account=

; Where received funds go. Leave empty to send funds back to their source.
; destination=

; Minimum pending amount in raw.
; threshold=0

; lockpolicy=session
; continuous=0
; forwardretries=3
; pollinterval=5s
; aliveinterval=60m

; Status API.
; apiaddr=127.0.0.1:7080
; apiuser=
; apipass=
; apiallowedip=

; loglevel=info
`
