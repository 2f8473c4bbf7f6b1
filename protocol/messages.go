package protocol

// MessageType 客户端 -> 服务端 消息类型编号
type MessageType uint8

// MsgInput 输入命令，固定编号 0
const MsgInput MessageType = 0

// 会话级与实体级字段名，核心只认识这几个，其余标量字段原样透传
const (
	FieldX         = "x"
	FieldY         = "y"
	FieldTick      = "tick"
	FieldScore     = "score"
	FieldMapWidth  = "mapWidth"
	FieldMapHeight = "mapHeight"
)

// ServerMessage 的种类
const (
	KindWelcome = "welcome"
	KindPatch   = "patch"
)

// OpKind 复制操作类型
type OpKind uint8

const (
	OpAdd OpKind = iota + 1
	OpRemove
	OpChange
)

func (k OpKind) String() string {
	switch k {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpChange:
		return "change"
	default:
		return "unknown"
	}
}

// Field 复制的单个标量字段（有序传输）
type Field struct {
	Name  string  `msgpack:"n"`
	Value float64 `msgpack:"v"`
}

// EntityState 单个实体的完整字段
type EntityState struct {
	ID     string  `msgpack:"id"`
	Fields []Field `msgpack:"f"`
}

// Op 单条增/删/改通知；Change 只携带变化的字段
type Op struct {
	Kind   OpKind  `msgpack:"k"`
	ID     string  `msgpack:"id"`
	Fields []Field `msgpack:"f,omitempty"`
}

// Patch 一个服务端固定步产生的全部变更
type Patch struct {
	Tick uint64 `msgpack:"t"`
	Ops  []Op   `msgpack:"o"`
}

// Welcome 加入完成后发给该连接的首条消息：会话字段 + 已复制实体
type Welcome struct {
	SessionID string        `msgpack:"sid"`
	Room      string        `msgpack:"room"`
	Fields    []Field       `msgpack:"f"`
	Players   []EntityState `msgpack:"p"`
}

// ServerMessage 服务端 -> 客户端 信封
type ServerMessage struct {
	Kind    string   `msgpack:"k"`
	Welcome *Welcome `msgpack:"w,omitempty"`
	Patch   *Patch   `msgpack:"p,omitempty"`
}

// ClientMessage 客户端 -> 服务端 信封，Body 按 Type 延迟解码
type ClientMessage struct {
	Type MessageType `msgpack:"t"`
	Body []byte      `msgpack:"b"`
}

// Lookup 在有序字段里按名查找
func Lookup(fields []Field, name string) (float64, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}
