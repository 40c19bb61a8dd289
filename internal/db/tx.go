package db

// WriteOpKind enumerates the commands allowed inside a transaction.
type WriteOpKind int

const (
	// WriteHSet sets hash fields.
	WriteHSet WriteOpKind = iota
	// WriteSAdd adds set members.
	WriteSAdd
	// WriteZAdd adds a scored sorted-set member.
	WriteZAdd
)

// WriteOp is a single write queued inside MULTI/EXEC.
type WriteOp struct {
	Kind    WriteOpKind
	Key     string
	Fields  map[string]string // WriteHSet
	Members []string          // WriteSAdd, WriteZAdd (first member)
	Score   float64           // WriteZAdd
}

// HSetOp builds an HSET write.
func HSetOp(key string, fields map[string]string) WriteOp {
	return WriteOp{Kind: WriteHSet, Key: key, Fields: fields}
}

// SAddOp builds an SADD write.
func SAddOp(key string, members ...string) WriteOp {
	return WriteOp{Kind: WriteSAdd, Key: key, Members: members}
}

// ZAddOp builds a ZADD write.
func ZAddOp(key string, score float64, member string) WriteOp {
	return WriteOp{Kind: WriteZAdd, Key: key, Score: score, Members: []string{member}}
}
