package scheduler

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// AgentLabel is the launchd label for the schedule daemon.
const AgentLabel = "com.blogpilot.agent"

// AgentOptions describe the launchd agent to install. The agent runs the
// binary with KeepAlive, so the in-process loop handles all timing.
type AgentOptions struct {
	ProgramPath string   // absolute path to this binary
	ProgramArgs []string // args after ProgramPath
	StdOutPath  string
	StdErrPath  string
	PlistPath   string // optional custom plist path
}

func DefaultAgentPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", AgentLabel+".plist"), nil
}

// BuildPlist renders the agent plist.
func BuildPlist(opt AgentOptions) ([]byte, error) {
	if opt.ProgramPath == "" {
		return nil, errors.New("program path required")
	}
	if opt.StdOutPath == "" || opt.StdErrPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			def := filepath.Join(home, "Library", "Logs", "blogpilot", "agent.launchd.log")
			if opt.StdOutPath == "" {
				opt.StdOutPath = def
			}
			if opt.StdErrPath == "" {
				opt.StdErrPath = def
			}
		}
	}
	_ = os.MkdirAll(filepath.Dir(opt.StdOutPath), 0o755)
	_ = os.MkdirAll(filepath.Dir(opt.StdErrPath), 0o755)

	escape := func(s string) string {
		var b bytes.Buffer
		xml.EscapeText(&b, []byte(s))
		return b.String()
	}
	args := append([]string{opt.ProgramPath}, opt.ProgramArgs...)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<!DOCTYPE plist PUBLIC \"-//Apple//DTD PLIST 1.0//EN\" \"http://www.apple.com/DTDs/PropertyList-1.0.dtd\">\n")
	buf.WriteString("<plist version=\"1.0\">\n  <dict>\n")
	buf.WriteString("    <key>Label</key>\n    <string>")
	buf.WriteString(escape(AgentLabel))
	buf.WriteString("</string>\n")
	buf.WriteString("    <key>ProgramArguments</key>\n    <array>\n")
	for _, a := range args {
		buf.WriteString("      <string>")
		buf.WriteString(escape(a))
		buf.WriteString("</string>\n")
	}
	buf.WriteString("    </array>\n")
	buf.WriteString("    <key>RunAtLoad</key>\n    <true/>\n")
	buf.WriteString("    <key>KeepAlive</key>\n    <true/>\n")
	buf.WriteString("    <key>StandardOutPath</key>\n    <string>")
	buf.WriteString(escape(opt.StdOutPath))
	buf.WriteString("</string>\n")
	buf.WriteString("    <key>StandardErrorPath</key>\n    <string>")
	buf.WriteString(escape(opt.StdErrPath))
	buf.WriteString("</string>\n")
	buf.WriteString("  </dict>\n</plist>\n")
	return buf.Bytes(), nil
}

// InstallAgent writes the plist and loads it via launchctl.
func InstallAgent(opt AgentOptions) (string, error) {
	if runtime.GOOS != "darwin" {
		return "", errors.New("launchd is only available on macOS")
	}
	plistPath := opt.PlistPath
	if strings.TrimSpace(plistPath) == "" {
		var err error
		plistPath, err = DefaultAgentPath()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(plistPath), 0o755); err != nil {
		return "", err
	}
	data, err := BuildPlist(opt)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(plistPath, data, 0o644); err != nil {
		return "", err
	}

	lctl := launchctlPath()
	if lctl == "" {
		return plistPath, errors.New("launchctl not found in /bin, /usr/bin, or PATH")
	}

	domain := fmt.Sprintf("gui/%d", os.Getuid())
	if err := exec.Command(lctl, "bootstrap", domain, plistPath).Run(); err != nil {
		// Fallback to legacy load -w
		if err2 := exec.Command(lctl, "load", "-w", plistPath).Run(); err2 != nil {
			return plistPath, fmt.Errorf("launchctl bootstrap/load failed: %v / %v", err, err2)
		}
	} else {
		_ = exec.Command(lctl, "enable", domain+"/"+AgentLabel).Run()
	}
	return plistPath, nil
}

// UninstallAgent unloads and removes the plist.
func UninstallAgent(plistPath string) error {
	if runtime.GOOS != "darwin" {
		return errors.New("launchd is only available on macOS")
	}
	if strings.TrimSpace(plistPath) == "" {
		var err error
		plistPath, err = DefaultAgentPath()
		if err != nil {
			return err
		}
	}
	lctl := launchctlPath()
	if lctl == "" {
		return errors.New("launchctl not found")
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	if err := exec.Command(lctl, "bootout", domain, plistPath).Run(); err != nil {
		_ = exec.Command(lctl, "unload", "-w", plistPath).Run()
	}
	if err := os.Remove(plistPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// AgentStatus returns whether the agent is loaded and a short state string.
func AgentStatus() (bool, string) {
	if runtime.GOOS != "darwin" {
		return false, "unsupported"
	}
	lctl := launchctlPath()
	if lctl == "" {
		return false, "launchctl not found"
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	out, err := exec.Command(lctl, "print", domain+"/"+AgentLabel).CombinedOutput()
	if err != nil {
		return false, "not loaded"
	}
	state := "loaded"
	for _, ln := range strings.Split(string(out), "\n") {
		if strings.Contains(ln, "state = ") {
			state = strings.TrimSpace(ln)
			break
		}
	}
	return true, state
}

func launchctlPath() string {
	for _, c := range []string{"/bin/launchctl", "/usr/bin/launchctl"} {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	if p, err := exec.LookPath("launchctl"); err == nil {
		return p
	}
	return ""
}
