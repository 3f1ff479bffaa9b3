package context

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunShutdownHooksOrder(t *testing.T) {
	var order []int
	OnShutdown(func() { order = append(order, 1) })
	OnShutdown(func() { order = append(order, 2) })

	RunShutdownHooks()
	assert.Equal(t, []int{2, 1}, order)

	// hooks are cleared after running
	RunShutdownHooks()
	assert.Equal(t, []int{2, 1}, order)
}

func TestRunShutdownHooksWaitsForRunningCall(t *testing.T) {
	started := make(chan struct{})
	var finished int32
	OnShutdown(func() {
		close(started)
		time.Sleep(300 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
	})

	go RunShutdownHooks()
	<-started

	RunShutdownHooks()
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}

const childEnv = "SERVERBENCH_CONTEXT_CHILD"

func TestSecondInterruptExits(t *testing.T) {
	if os.Getenv(childEnv) == "1" {
		Context()
		p, err := os.FindProcess(os.Getpid())
		if err != nil {
			os.Exit(2)
		}
		p.Signal(os.Interrupt)
		time.Sleep(100 * time.Millisecond)
		p.Signal(os.Interrupt)
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}
	if runtime.GOOS == "windows" {
		t.Skip("interrupt cannot be sent to the current process on windows")
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestSecondInterruptExits$")
	cmd.Env = append(os.Environ(), childEnv+"=1")
	err := cmd.Run()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected non-zero exit, got %v", err)
	assert.Equal(t, 1, exitErr.ExitCode())
}
