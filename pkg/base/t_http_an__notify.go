// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

// SdtUpdateInfo 每次SDT有section解析成功后通知
type SdtUpdateInfo struct {
	ServerId string `json:"server_id"`

	// SectionNumber 本次解析成功的section
	SectionNumber uint8 `json:"section_number"`

	Sdt StatSdt `json:"sdt"`
}

type PatUpdateInfo struct {
	ServerId string `json:"server_id"`

	Pat StatPat `json:"pat"`
}
