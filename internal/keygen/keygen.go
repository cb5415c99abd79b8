// Package keygen drives the external key generation tool and turns its
// output into the key artifacts and DNS record values the rest of the run
// consumes.
package keygen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	gkerrors "github.com/Trellmor/opendkim-genkeys/internal/errors"
	"github.com/Trellmor/opendkim-genkeys/internal/logging"
	pkgexec "github.com/Trellmor/opendkim-genkeys/pkg/exec"
)

// Key is the generated key material for one key name. Selector is the
// selector actually used, which may carry a disambiguating suffix when
// collision avoidance was requested. Plain is the raw TXT payload;
// Chunked is the same payload as space-joined quoted segments suitable
// for zone-file presentation.
type Key struct {
	Selector string
	Plain    string
	Chunked  string
}

// Generator generates one key per key name in Dir.
type Generator struct {
	Dir     string
	Command string
	Bits    int
	Exec    pkgexec.CommandExecutor
	Log     *logging.Logger
}

// suffixes is the disambiguation space tried after the plain selector
// when collision avoidance is enabled.
const suffixes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generate creates the private key file keyName.selector.key and the
// chunked public key file keyName.selector.txt, returning the parsed key
// record. Any failure here is run-fatal for the caller: a domain cannot
// be signed without its key.
func (g *Generator) Generate(ctx context.Context, keyName, selector string, avoidCollision bool) (*Key, error) {
	realSelector, err := g.pickSelector(keyName, selector, avoidCollision)
	if err != nil {
		return nil, err
	}
	if realSelector != selector {
		g.Log.Warn("Avoided overwriting keys for %s by using selector %s", keyName, realSelector)
	}

	privateKeyFile := filepath.Join(g.Dir, keyName+"."+realSelector+".key")
	publicKeyFile := filepath.Join(g.Dir, keyName+"."+realSelector+".txt")

	if err := g.runTool(ctx, keyName, realSelector); err != nil {
		return nil, &gkerrors.KeyGenError{KeyName: keyName, Selector: realSelector, Reason: gkerrors.ReasonExternalTool, Err: err}
	}

	// The tool names its outputs after the bare selector; qualify the
	// private key with the key name so keys for different names can
	// share a directory.
	if err := os.Rename(filepath.Join(g.Dir, realSelector+".private"), privateKeyFile); err != nil {
		return nil, &gkerrors.KeyGenError{KeyName: keyName, Selector: realSelector, Reason: gkerrors.ReasonRename, Err: err}
	}

	toolOutput := filepath.Join(g.Dir, realSelector+".txt")
	data, err := os.ReadFile(toolOutput)
	if err != nil {
		return nil, &gkerrors.KeyGenError{KeyName: keyName, Selector: realSelector, Reason: gkerrors.ReasonReadKey, Err: err}
	}

	plain, chunked, perr := ParseRecordValue(string(data))
	if perr != nil {
		var kge *gkerrors.KeyGenError
		if errors.As(perr, &kge) {
			kge.KeyName = keyName
			kge.Selector = realSelector
		}
		return nil, perr
	}

	if err := os.WriteFile(publicKeyFile, []byte(chunked+"\n"), 0o644); err != nil {
		return nil, &gkerrors.KeyGenError{KeyName: keyName, Selector: realSelector, Reason: gkerrors.ReasonWriteKey, Err: err}
	}

	// The tool's own public key file is no longer needed. Losing this
	// delete does not invalidate the generated key.
	if err := os.Remove(toolOutput); err != nil {
		g.Log.Warn("Could not delete origin file %s.txt: %v", realSelector, err)
	}

	return &Key{Selector: realSelector, Plain: plain, Chunked: chunked}, nil
}

// pickSelector returns the first selector candidate with no existing key
// files. Without collision avoidance the only candidate is the selector
// itself.
func (g *Generator) pickSelector(keyName, selector string, avoidCollision bool) (string, error) {
	candidates := []string{selector}
	if avoidCollision {
		for _, c := range suffixes {
			candidates = append(candidates, selector+string(c))
		}
	}
	for _, rs := range candidates {
		private := filepath.Join(g.Dir, keyName+"."+rs+".key")
		public := filepath.Join(g.Dir, keyName+"."+rs+".txt")
		if !fileExists(private) && !fileExists(public) {
			return rs, nil
		}
	}
	return "", &gkerrors.KeyGenError{
		KeyName:  keyName,
		Selector: selector,
		Reason:   gkerrors.ReasonSelectorSpaceExhausted,
		Err:      fmt.Errorf("files for %s selector %s already exist", keyName, selector),
	}
}

func (g *Generator) runTool(ctx context.Context, keyName, selector string) error {
	args := []string{"-b", strconv.Itoa(g.Bits), "-r", "-s", selector, "-d", keyName}
	g.Log.Debug("Running %s %s", g.Command, strings.Join(args, " "))
	_, stderr, err := g.Exec.Execute(ctx, g.Dir, g.Command, args...)
	if err != nil {
		cmdErr := &gkerrors.CommandError{Command: g.Command, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		if len(stderr) > 0 {
			g.Log.Error("%s: %s", g.Command, strings.TrimSpace(string(stderr)))
		}
		return cmdErr
	}
	return nil
}

// ParseRecordValue extracts the TXT record value from the tool's public
// key output. The value is stored as a sequence of quoted segments;
// segment contents concatenate into the plain value, and the segments
// themselves (quotes included, space-joined) form the chunked value.
func ParseRecordValue(input string) (plain, chunked string, err error) {
	var plainB, chunkedB strings.Builder
	rest := input
	for {
		first := strings.IndexByte(rest, '"')
		if first < 0 {
			break
		}
		second := strings.IndexByte(rest[first+1:], '"')
		if second < 0 {
			return "", "", &gkerrors.KeyGenError{Reason: gkerrors.ReasonSyntax,
				Err: fmt.Errorf("no closing quote found")}
		}
		second += first + 1
		plainB.WriteString(rest[first+1 : second])
		if chunkedB.Len() > 0 {
			chunkedB.WriteByte(' ')
		}
		chunkedB.WriteString(rest[first : second+1])
		rest = rest[second+1:]
	}
	if plainB.Len() == 0 {
		return "", "", &gkerrors.KeyGenError{Reason: gkerrors.ReasonEmptyKeyData,
			Err: fmt.Errorf("no quoted record data in input")}
	}
	return plainB.String(), chunkedB.String(), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
