package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"tickarena/sim"
)

// ErrUnknownKind 无法识别的服务端消息
var ErrUnknownKind = errors.New("protocol: unknown message kind")

// EncodeInput 编码一条输入命令（MsgInput）
func EncodeInput(in sim.Input) ([]byte, error) {
	body, err := msgpack.Marshal(&in)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	b, err := msgpack.Marshal(&ClientMessage{Type: MsgInput, Body: body})
	if err != nil {
		return nil, fmt.Errorf("encode client message: %w", err)
	}
	return b, nil
}

// DecodeClient 解码客户端信封
func DecodeClient(b []byte) (ClientMessage, error) {
	var m ClientMessage
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return ClientMessage{}, fmt.Errorf("decode client message: %w", err)
	}
	return m, nil
}

// DecodeInput 解码 MsgInput 消息体
func DecodeInput(body []byte) (sim.Input, error) {
	var in sim.Input
	if err := msgpack.Unmarshal(body, &in); err != nil {
		return sim.Input{}, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}

// EncodeWelcome 编码欢迎消息
func EncodeWelcome(w *Welcome) ([]byte, error) {
	b, err := msgpack.Marshal(&ServerMessage{Kind: KindWelcome, Welcome: w})
	if err != nil {
		return nil, fmt.Errorf("encode welcome: %w", err)
	}
	return b, nil
}

// EncodePatch 编码一次复制补丁
func EncodePatch(p *Patch) ([]byte, error) {
	b, err := msgpack.Marshal(&ServerMessage{Kind: KindPatch, Patch: p})
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return b, nil
}

// DecodeServer 解码服务端消息并校验种类
func DecodeServer(b []byte) (ServerMessage, error) {
	var m ServerMessage
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return ServerMessage{}, fmt.Errorf("decode server message: %w", err)
	}
	switch {
	case m.Kind == KindWelcome && m.Welcome != nil:
	case m.Kind == KindPatch && m.Patch != nil:
	default:
		return ServerMessage{}, fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return m, nil
}
