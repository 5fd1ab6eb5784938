// Copyright 2019, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"path/filepath"

	"github.com/q191201771/lalsi/pkg/base"
)

// ---------------------------------------------------------------------------------------------------------------------

type ILalsiServer interface {
	RunLoop() error
	Dispose() error

	// StatLalsiInfo StatSdt StatPat StatPipeline
	//
	// 获取状态的API，http api也是基于这些函数实现的
	//
	StatLalsiInfo() base.LalsiInfo

	// StatSdt 还没有收到SDT时返回nil
	StatSdt() *base.StatSdt

	// StatPat 还没有收到PAT时返回nil
	StatPat() *base.StatPat

	StatPipeline() base.StatPipeline
}

// NewLalsiServer 创建一个lalsi server
//
// @param modOption: 定制化配置。可变参数，如果不关心，可以不填，具体字段见 Option
func NewLalsiServer(modOption ...ModOption) ILalsiServer {
	return NewServerManager(modOption...)
}

// ---------------------------------------------------------------------------------------------------------------------

// INotifyHandler 事件通知接口
type INotifyHandler interface {
	OnServerStart(info base.LalsiInfo)
	OnSdtUpdate(info base.SdtUpdateInfo)
	OnPatUpdate(info base.PatUpdateInfo)
}

type Option struct {
	// ConfFilename 配置文件。
	//
	// 注意，如果为空，内部会尝试从 DefaultConfFilenameList 读取默认配置文件
	ConfFilename string

	// ConfRawContent 配置内容，json格式。
	//
	// 注意，读取加载配置的优先级是 ConfRawContent > ConfFilename > DefaultConfFilenameList
	ConfRawContent []byte

	// NotifyHandler
	//
	// 事件监听
	// 如果不填写保持默认值nil，内部默认走http notify的逻辑（当然，还需要在配置文件中开启http notify功能）。
	// 注意，如果业务方实现了自己的事件监听，则内部不再走http notify的逻辑（也即二选一）。
	//
	NotifyHandler INotifyHandler
}

var defaultOption = Option{
	NotifyHandler: nil, // 注意，为nil时，内部会赋值为 HttpNotify
}

type ModOption func(option *Option)

// DefaultConfFilenameList 没有指定配置文件时，按顺序作为优先级，找到第一个存在的并使用
var DefaultConfFilenameList = []string{
	filepath.FromSlash("lalsi.conf.json"),
	filepath.FromSlash("./conf/lalsi.conf.json"),
	filepath.FromSlash("../lalsi.conf.json"),
	filepath.FromSlash("../conf/lalsi.conf.json"),
	filepath.FromSlash("../../lalsi.conf.json"),
	filepath.FromSlash("../../conf/lalsi.conf.json"),
	filepath.FromSlash("lalsi/conf/lalsi.conf.json"),
}
