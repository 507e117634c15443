package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	_ "github.com/konsorten/go-windows-terminal-sequences"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh/terminal"

	"ndfcctl/config"
	"ndfcctl/logging"
	"ndfcctl/ndfc"
	"ndfcctl/rest"
)

const version = "0.3.0"

// NoArgs : subcommand without arguments
type NoArgs struct{}

// ConfigArgs : subcommand driven by a YAML item file
type ConfigArgs struct {
	Config string `arg:"-c,--config,required" help:"YAML file with a config list"`
}

// FabricArgs : subcommand acting on one fabric
type FabricArgs struct {
	Fabric string `arg:"positional,required" help:"fabric name"`
}

// FabricDeployArgs : fabric-deploy arguments
type FabricDeployArgs struct {
	Fabric       string `arg:"positional,required" help:"fabric name"`
	ForceShowRun bool   `arg:"--force-show-run" help:"refresh running config before computing the diff"`
}

// PolicyArgs : policy-get arguments
type PolicyArgs struct {
	PolicyID string `arg:"positional,required" help:"policy id, e.g. POLICY-1210"`
}

// SwitchArgs : subcommand acting on one switch
type SwitchArgs struct {
	Serial string `arg:"positional,required" help:"switch serial number"`
}

// InventoryArgs : inventory arguments
type InventoryArgs struct {
	Fabric string `arg:"positional" help:"fabric name; all switches when omitted"`
}

// Args : CLI args
type Args struct {
	Verbose        bool          `arg:"-v" help:"debug logging"`
	LogFile        string        `arg:"--log-file" help:"JSON log file, empty to disable"`
	Profile        string        `arg:"--profile" help:"YAML file with host, username, password, domain, insecure"`
	Timeout        time.Duration `arg:"--timeout" help:"how long a request is retried"`
	SendInterval   time.Duration `arg:"--send-interval" help:"wait between retries"`
	RequestTimeout time.Duration `arg:"--request-timeout" help:"HTTP request timeout"`
	Check          bool          `arg:"--check" help:"log write requests instead of sending them"`
	JSON           bool          `arg:"--json" help:"print results as JSON"`

	ShowVersion *NoArgs `arg:"subcommand:version" help:"show controller version"`

	FabricCreate *ConfigArgs       `arg:"subcommand:fabric-create" help:"create fabrics"`
	FabricDelete *FabricArgs       `arg:"subcommand:fabric-delete" help:"delete a fabric"`
	FabricList   *NoArgs           `arg:"subcommand:fabric-list" help:"list fabrics"`
	FabricSave   *FabricArgs       `arg:"subcommand:fabric-save" help:"save fabric config"`
	FabricDeploy *FabricDeployArgs `arg:"subcommand:fabric-deploy" help:"deploy fabric config"`

	VrfCreate *ConfigArgs `arg:"subcommand:vrf-create" help:"create VRFs"`
	VrfDelete *ConfigArgs `arg:"subcommand:vrf-delete" help:"delete VRFs"`
	VrfList   *FabricArgs `arg:"subcommand:vrf-list" help:"list VRFs of a fabric"`
	VrfAttach *ConfigArgs `arg:"subcommand:vrf-attach" help:"attach VRFs to switches"`

	NetworkCreate *ConfigArgs `arg:"subcommand:network-create" help:"create networks"`
	NetworkDelete *ConfigArgs `arg:"subcommand:network-delete" help:"delete networks"`
	NetworkList   *FabricArgs `arg:"subcommand:network-list" help:"list networks of a fabric"`
	NetworkAttach *ConfigArgs `arg:"subcommand:network-attach" help:"attach networks to switch ports"`

	PolicyCreate *ConfigArgs `arg:"subcommand:policy-create" help:"create switch policies"`
	PolicyUpdate *ConfigArgs `arg:"subcommand:policy-update" help:"update switch policies"`
	PolicyGet    *PolicyArgs `arg:"subcommand:policy-get" help:"show a policy"`
	PolicyList   *SwitchArgs `arg:"subcommand:policy-list" help:"list policies of a switch"`
	PolicyDelete *ConfigArgs `arg:"subcommand:policy-delete" help:"delete policies"`

	Reachability *ConfigArgs `arg:"subcommand:reachability" help:"test switch reachability"`
	Discover     *ConfigArgs `arg:"subcommand:discover" help:"discover switches into a fabric"`

	Inventory       *InventoryArgs `arg:"subcommand:inventory" help:"list switches"`
	SwitchRole      *ConfigArgs    `arg:"subcommand:switch-role" help:"set switch roles"`
	MaintenanceMode *ConfigArgs    `arg:"subcommand:maintenance-mode" help:"move switches into or out of maintenance mode"`
	SwitchRemove    *ConfigArgs    `arg:"subcommand:switch-remove" help:"remove switches from a fabric"`

	ImagePolicyCreate *ConfigArgs `arg:"subcommand:image-policy-create" help:"create image policies"`
	ImagePolicyDelete *ConfigArgs `arg:"subcommand:image-policy-delete" help:"delete image policies"`
	ImagePolicyList   *NoArgs     `arg:"subcommand:image-policy-list" help:"list image policies"`
}

// Description : App description for CLI interface
func (Args) Description() string {
	return "Nexus Dashboard Fabric Controller automation.\n" +
		"Credentials come from --profile and ND_IP4, ND_USERNAME, ND_PASSWORD, ND_DOMAIN, ND_INSECURE."
}

// Version : App version string for CLI interface
func (Args) Version() string {
	return fmt.Sprintf("ndfcctl version %s", version)
}

func defaultArgs() Args {
	return Args{
		LogFile:        logging.DefaultFile,
		Timeout:        rest.DefaultTimeout,
		SendInterval:   rest.DefaultSendInterval,
		RequestTimeout: rest.DefaultRequestTimeout,
	}
}

func input(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("%s ", prompt)
	input, _ := reader.ReadString('\n')
	return strings.Trim(input, "\r\n")
}

// promptCredentials asks for whatever the profile and environment left out.
func promptCredentials(creds *config.Credentials) {
	for _, name := range creds.Missing() {
		switch name {
		case "ND_IP4":
			creds.Host = input("ND IP:")
		case "ND_USERNAME":
			creds.Username = input("Username:")
		case "ND_PASSWORD":
			fmt.Print("Password: ")
			pwd, _ := terminal.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			creds.Password = string(pwd)
		}
	}
}

func newClient(args Args, creds config.Credentials, log *logrus.Logger) (*ndfc.Client, error) {
	sender, err := rest.NewClient(rest.Config{
		Host:           creds.Host,
		Username:       creds.Username,
		Password:       creds.Password,
		Domain:         creds.Domain,
		Insecure:       creds.Insecure,
		RequestTimeout: args.RequestTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	rs := rest.NewRestSend(sender, log)
	rs.Timeout = args.Timeout
	rs.SendInterval = args.SendInterval
	rs.CheckMode = args.Check
	return ndfc.New(rs, log), nil
}

func main() {
	args := defaultArgs()
	p := arg.MustParse(&args)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	log, err := logging.New(logging.Options{Verbose: args.Verbose, File: args.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	creds, err := config.LoadCredentials(args.Profile)
	if err != nil {
		log.Fatal(err)
	}
	promptCredentials(&creds)
	client, err := newClient(args, creds, log)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	app := &app{args: args, log: log, client: client, out: os.Stdout}
	if err := app.run(ctx, p.SubcommandNames()[0]); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}
