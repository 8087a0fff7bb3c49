package main

import (
	"bytes"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/hengadev/hprose"
	"github.com/hengadev/hprose/rpc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	var err error
	switch command := args[0]; command {
	case "decode":
		err = decodeCommand(args[1:], stdin, stdout, stderr)
	case "encode":
		err = encodeCommand(args[1:], stdin, stdout, stderr)
	case "request":
		err = requestCommand(args[1:], stdin, stdout, stderr)
	case "response":
		err = responseCommand(args[1:], stdin, stdout, stderr)
	case "version":
		fmt.Fprintln(stdout, hprose.VersionInfo())
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "%s failed: %v\n", args[0], err)
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: hprose-inspect <command> [options] [file]\n")
	fmt.Fprintf(w, "\nCommands:\n")
	fmt.Fprintf(w, "  decode    Print an hprose value as YAML\n")
	fmt.Fprintf(w, "  encode    Encode a YAML document as hprose\n")
	fmt.Fprintf(w, "  request   Print the method, headers and arguments of a request frame\n")
	fmt.Fprintf(w, "  response  Print the headers and result of a response frame\n")
	fmt.Fprintf(w, "  version   Show version information\n")
	fmt.Fprintf(w, "\nInput is read from the file argument, or stdin when it is absent or \"-\".\n")
}

// session is the state shared by every command after flags are parsed.
type session struct {
	config *Config
	input  []byte
	hex    bool
}

func newSession(name string, args []string, stdin io.Reader, stderr io.Writer) (*session, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "hprose.yaml", "Path to configuration file")
	envPath := fs.String("env", ".env", "Path to dotenv file")
	hexInput := fs.Bool("hex", false, "Input (or for encode, output) is hex encoded")
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := LoadEnvFile(*envPath); err != nil {
		return nil, err
	}
	config, err := LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnvironment(); err != nil {
		return nil, err
	}
	if *verbose {
		config.LogLevel = "debug"
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	input, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return nil, err
	}
	s := &session{config: config, input: input, hex: *hexInput || config.Format == "hex"}
	return s, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// frame returns the input as hprose bytes, hex-decoding it if asked.
func (s *session) frame() ([]byte, error) {
	if !s.hex {
		return s.input, nil
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(string(s.input)), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return data, nil
}

func decodeCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	s, err := newSession("decode", args, stdin, stderr)
	if err != nil {
		return err
	}
	data, err := s.frame()
	if err != nil {
		return err
	}
	opts, err := s.config.CodecOptions(s.config.Logger(stderr))
	if err != nil {
		return err
	}
	r, err := hprose.NewReader(data, opts...)
	if err != nil {
		return err
	}
	// A stream may hold several values back to back.
	for r.Remaining() > 0 {
		var v any
		if err := r.Deserialize(&v); err != nil {
			return err
		}
		if err := printYAML(stdout, printable(v)); err != nil {
			return err
		}
	}
	return nil
}

func encodeCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	s, err := newSession("encode", args, stdin, stderr)
	if err != nil {
		return err
	}
	var v any
	if err := yaml.Unmarshal(s.input, &v); err != nil {
		return fmt.Errorf("invalid YAML input: %w", err)
	}
	opts, err := s.config.CodecOptions(s.config.Logger(stderr))
	if err != nil {
		return err
	}
	data, err := hprose.Serialize(v, opts...)
	if err != nil {
		return err
	}
	if s.hex {
		_, err = fmt.Fprintln(stdout, hex.EncodeToString(data))
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func requestCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	s, err := newSession("request", args, stdin, stderr)
	if err != nil {
		return err
	}
	data, err := s.frame()
	if err != nil {
		return err
	}
	opts, err := s.config.RPCOptions(s.config.Logger(stderr))
	if err != nil {
		return err
	}
	codec, err := rpc.NewServiceCodec(opts...)
	if err != nil {
		return err
	}
	req, err := codec.Decode(data, nil)
	if err != nil {
		return err
	}
	if req.Name == "" {
		_, err := fmt.Fprintln(stdout, "method list request")
		return err
	}
	return printYAML(stdout, struct {
		Method  string         `yaml:"method"`
		Headers map[string]any `yaml:"headers,omitempty"`
		Args    []any          `yaml:"args,omitempty"`
	}{req.Name, printableMap(req.Headers), printableList(req.Args)})
}

func responseCommand(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	s, err := newSession("response", args, stdin, stderr)
	if err != nil {
		return err
	}
	data, err := s.frame()
	if err != nil {
		return err
	}
	opts, err := s.config.RPCOptions(s.config.Logger(stderr))
	if err != nil {
		return err
	}
	codec, err := rpc.NewClientCodec(opts...)
	if err != nil {
		return err
	}

	out := struct {
		Headers map[string]any `yaml:"headers,omitempty"`
		Result  any            `yaml:"result,omitempty"`
		Error   string         `yaml:"error,omitempty"`
	}{}
	ctx := rpc.NewClientContext()
	var result any
	err = codec.Decode(data, &result, ctx)
	var remote *rpc.RemoteError
	switch {
	case errors.As(err, &remote):
		out.Error = remote.Message
	case err != nil:
		return err
	}
	out.Headers = printableMap(ctx.ResponseHeaders)
	out.Result = printable(result)
	if out.Result == nil && out.Error == "" {
		_, err := fmt.Fprintln(stdout, "void")
		return err
	}
	return printYAML(stdout, out)
}

func printYAML(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// maxPrintDepth stops printing at cyclic references.
const maxPrintDepth = 32

// printable rewrites decoded values that YAML cannot show directly.
func printable(v any) any {
	return printableAt(v, 0)
}

func printableAt(v any, depth int) any {
	if depth > maxPrintDepth {
		return "..."
	}
	switch x := v.(type) {
	case uuid.UUID:
		return x.String()
	case *big.Int:
		return x.String()
	case []byte:
		return fmt.Sprintf("%q", x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = printableAt(e, depth+1)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = printableAt(e, depth+1)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(printableAt(k, depth+1))] = printableAt(e, depth+1)
		}
		return out
	default:
		return v
	}
}

func printableList(list []any) []any {
	if list == nil {
		return nil
	}
	return printable(list).([]any)
}

func printableMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return printable(m).(map[string]any)
}
