// Package codec 注册 gRPC 的 JSON 编解码器，服务间消息以普通 Go 结构体传输
package codec

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc/encoding"
)

// Name 是编解码器名称，对应 content-type application/grpc+json
const Name = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec 基于 jsoniter 的 gRPC 编解码器
type Codec struct{}

// Marshal 编码消息
func (Codec) Marshal(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("codec: cannot marshal nil message")
	}
	return json.Marshal(v)
}

// Unmarshal 解码消息，空负载视为零值消息
func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Name 返回编解码器名称
func (Codec) Name() string {
	return Name
}
