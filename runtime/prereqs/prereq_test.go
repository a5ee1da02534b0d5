package prereqs

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/slashprotect/testing/require"
	logTest "github.com/sirupsen/logrus/hooks/test"
)

func setPlatform(t *testing.T, os, arch string) {
	prevOS, prevArch, prevExec := runtimeOS, runtimeArch, execShellOutput
	t.Cleanup(func() {
		runtimeOS, runtimeArch, execShellOutput = prevOS, prevArch, prevExec
	})
	runtimeOS, runtimeArch = os, arch
}

func unameReturns(release string, err error) {
	execShellOutput = func(ctx context.Context, command string, args ...string) (string, error) {
		return release, err
	}
}

func TestMeetsMinPlatformReqs(t *testing.T) {
	tests := []struct {
		name    string
		os      string
		arch    string
		uname   string
		unameEr error
		want    bool
		wantErr string
	}{
		{name: "linux amd64", os: "linux", arch: "amd64", want: true},
		{name: "linux arm64", os: "linux", arch: "arm64", want: true},
		{name: "linux mips64", os: "linux", arch: "mips64", want: false},
		{name: "windows amd64", os: "windows", arch: "amd64", want: true},
		{name: "windows arm64", os: "windows", arch: "arm64", want: false},
		{name: "darwin uname fails", os: "darwin", arch: "amd64", unameEr: errors.New("no uname"), wantErr: "error obtaining darwin kernel release"},
		{name: "darwin too old", os: "darwin", arch: "amd64", uname: "17.7.0", want: false},
		{name: "darwin minimum", os: "darwin", arch: "amd64", uname: "18.0.0\n", want: true},
		{name: "darwin newer", os: "darwin", arch: "arm64", uname: "23.1.0", want: true},
		{name: "darwin arm64 too old", os: "darwin", arch: "arm64", uname: "19.6.0", want: false},
		{name: "darwin garbage", os: "darwin", arch: "amd64", uname: "tiger.lion", wantErr: "error parsing version"},
		{name: "darwin short", os: "darwin", arch: "amd64", uname: "23", wantErr: "insufficient information about version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setPlatform(t, tt.os, tt.arch)
			unameReturns(tt.uname, tt.unameEr)
			got, err := meetsMinPlatformReqs(context.Background())
			if tt.wantErr != "" {
				require.ErrorContains(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestWarnIfNotSupported(t *testing.T) {
	hook := logTest.NewGlobal()

	setPlatform(t, "linux", "amd64")
	WarnIfPlatformNotSupported(context.Background())
	require.LogsDoNotContain(t, hook, "Failed to detect host platform")
	require.LogsDoNotContain(t, hook, "platform is not supported")

	runtimeArch = "mips64"
	WarnIfPlatformNotSupported(context.Background())
	require.LogsContain(t, hook, "platform is not supported")

	hook.Reset()
	runtimeOS, runtimeArch = "darwin", "amd64"
	unameReturns("", errors.New("no uname"))
	WarnIfPlatformNotSupported(context.Background())
	require.LogsContain(t, hook, "Failed to detect host platform")
}

func TestCheckDirectorySync(t *testing.T) {
	setPlatform(t, "linux", "arm64")
	require.NoError(t, CheckDirectorySync())

	runtimeOS, runtimeArch = "windows", "amd64"
	require.ErrorContains(t, "use the bolt storage backend", CheckDirectorySync())

	// Unknown platforms are only warned about.
	runtimeOS, runtimeArch = "plan9", "386"
	require.NoError(t, CheckDirectorySync())
}
