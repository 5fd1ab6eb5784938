// Copyright 2019, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/logic"
	"github.com/q191201771/naza/pkg/bininfo"
)

func main() {
	defer func() {
		if v := recover(); v != nil {
			_, _ = fmt.Fprintf(os.Stderr, "panic. v=%+v\n", v)
			base.OsExitAndWaitPressIfWindows(1)
		}
	}()

	confFilename := parseFlag()
	lals := logic.NewLalsiServer(func(option *logic.Option) {
		option.ConfFilename = confFilename
	})
	err := lals.RunLoop()
	logic.Log.Infof("server manager done. err=%+v", err)
	if err != nil {
		base.OsExitAndWaitPressIfWindows(1)
	}
}

func parseFlag() string {
	binInfoFlag := flag.Bool("v", false, "show bin info")
	cf := flag.String("c", "", "specify conf file")
	flag.Parse()

	if *binInfoFlag {
		_, _ = fmt.Fprint(os.Stderr, bininfo.StringifyMultiLine())
		_, _ = fmt.Fprintln(os.Stderr, base.LalsiFullInfo)
		os.Exit(0)
	}

	return *cf
}
