// Copyright 2022, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

// t_http_an__.go
//
// http-api和http-notify的共用部分
//

const (
	// InputTypeUdp StatInput.Type
	InputTypeUdp  = "udp"
	InputTypeFile = "file"
	InputTypeDump = "dump"
	InputTypeSrt  = "srt"
)

type LalsiInfo struct {
	ServerId      string `json:"server_id"`
	BinInfo       string `json:"bin_info"`
	LalsiVersion  string `json:"lalsi_version"`
	ApiVersion    string `json:"api_version"`
	NotifyVersion string `json:"notify_version"`
	StartTime     string `json:"start_time"`
}

type StatSdtService struct {
	ServiceId               uint16 `json:"service_id"`
	ServiceType             uint8  `json:"service_type"`
	ProviderName            string `json:"provider_name"`
	ServiceName             string `json:"service_name"`
	RunningStatus           uint8  `json:"running_status"`
	FreeCaMode              bool   `json:"free_ca_mode"`
	EitScheduleFlag         bool   `json:"eit_schedule_flag"`
	EitPresentFollowingFlag bool   `json:"eit_present_following_flag"`
	DescriptorTags          []int  `json:"descriptor_tags"`
}

type StatSdt struct {
	Pid               uint16           `json:"pid"`
	TableId           uint8            `json:"table_id"`
	TransportStreamId uint16           `json:"transport_stream_id"`
	OriginalNetworkId uint16           `json:"original_network_id"`
	VersionNumber     uint8            `json:"version_number"`
	LastSectionNumber uint8            `json:"last_section_number"`
	CompletedSections []int            `json:"completed_sections"`
	Complete          bool             `json:"complete"`
	Services          []StatSdtService `json:"services"`
}

type StatPmtStream struct {
	StreamType uint8  `json:"stream_type"`
	Pid        uint16 `json:"pid"`
}

type StatPatProgram struct {
	ProgramNumber uint16 `json:"program_number"`
	Pid           uint16 `json:"pid"`

	// 以下字段来自PMT，还没有收到PMT时为空
	PmtVersionNumber int             `json:"pmt_version_number"`
	PcrPid           uint16          `json:"pcr_pid"`
	Streams          []StatPmtStream `json:"streams"`
}

type StatPat struct {
	TransportStreamId uint16           `json:"transport_stream_id"`
	VersionNumber     uint8            `json:"version_number"`
	Complete          bool             `json:"complete"`
	Programs          []StatPatProgram `json:"programs"`
}

type StatRingBuffer struct {
	SessionId           string `json:"session_id"`
	Capacity            int    `json:"capacity"`
	SlotSize            int    `json:"slot_size"`
	AllowOverflow       bool   `json:"allow_overflow"`
	Fullness            int    `json:"fullness"`
	NextAddPosition     int    `json:"next_add_position"`
	LastRemovedPosition int    `json:"last_removed_position"`
	Added               uint64 `json:"added"`
	Removed             uint64 `json:"removed"`
	Dropped             uint64 `json:"dropped"`
}

type StatInput struct {
	SessionId   string `json:"session_id"`
	Type        string `json:"type"`
	Addr        string `json:"addr"`
	ReadBytes   uint64 `json:"read_bytes"`
	ReadRecords uint64 `json:"read_records"`
}

type StatDecoder struct {
	SessionId             string `json:"session_id"`
	Table                 string `json:"table"`
	Pid                   int    `json:"pid"`
	SectionsPublished     uint64 `json:"sections_published"`
	SectionsFiltered      uint64 `json:"sections_filtered"`
	SectionsDuplicated    uint64 `json:"sections_duplicated"`
	SectionsFailed        uint64 `json:"sections_failed"`
	PointerFieldAnomalies uint64 `json:"pointer_field_anomalies"`
	VersionChanges        uint64 `json:"version_changes"`
}

type StatPipeline struct {
	Input      StatInput      `json:"input"`
	RingBuffer StatRingBuffer `json:"ring_buffer"`
	Decoders   []StatDecoder  `json:"decoders"`

	// TsPackets consumer侧处理的ts packet个数
	TsPackets       uint64 `json:"ts_packets"`
	TsPacketErrors  uint64 `json:"ts_packet_errors"`
	AddRecordErrors uint64 `json:"add_record_errors"`
}
