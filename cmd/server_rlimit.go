// Copyright (c) 2015-2021 MinIO, Inc.
//
// This file is part of MinIO Object Storage stack
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/frugalos/frugalos/internal/logger"
)

// maxKernelThreads reads /proc/sys/kernel/threads-max on Linux; on any other
// platform, or if the file can't be read, it reports 0 (caller skips the
// adjustment).
func maxKernelThreads() (int, error) {
	if runtime.GOOS != "linux" {
		return 0, nil
	}
	raw, err := os.ReadFile("/proc/sys/kernel/threads-max")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(raw)))
}

// setMaxResources raises the process's open-file limit to its hard ceiling,
// since a node with many in-flight repair jobs and peer fetches opens many
// files and sockets concurrently. Grounded on cmd/server-rlimit.go's setMaxResources,
// ported from github.com/minio/pkg/sys (a MinIO-internal wrapper, dropped per
// DESIGN.md) directly onto golang.org/x/sys/unix's Getrlimit/Setrlimit, which
// the teacher's go.mod already pulls in transitively.
func setMaxResources() error {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return err
	}

	if rlimit.Cur < rlimit.Max {
		want := rlimit
		want.Cur = want.Max
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &want); err != nil {
			return err
		}
		rlimit = want
	}

	if rlimit.Cur < 4096 && runtime.GOOS != "windows" {
		logger.Info("maximum file descriptor limit is low, recommend at least 4096", "limit", rlimit.Cur)
	}

	// Raise the Go runtime's max-OS-threads ceiling in step with the kernel
	// thread limit, same 90%-of-kernel-setting margin as the teacher.
	if threads, err := maxKernelThreads(); err == nil && threads > 0 {
		if want := (threads * 90) / 100; want > 10000 {
			debug.SetMaxThreads(want)
		}
	}

	return nil
}
