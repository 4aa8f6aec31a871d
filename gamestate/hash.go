package gamestate

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"

	"github.com/kongshan001/game-frame-sync/entity"
)

// fieldSeparator joins an entity's serialized fields. 0x1f (ASCII
// unit separator) cannot appear in decimal integer text, so it can
// never collide with a field value.
const fieldSeparator = 0x1f

// computeHash produces the canonical MD5 digest described in
// spec.md §4.4: entities already sorted by id, each entity's fields
// serialized in the fixed order id,x,y,vx,vy,w,h,hp,max_hp as decimal
// text of the raw fixed-point value (never the float projection),
// joined by fieldSeparator.
func computeHash(sortedEntities []entity.Entity) string {
	buf := make([]byte, 0, len(sortedEntities)*64)
	for _, e := range sortedEntities {
		buf = appendField(buf, int64(e.ID))
		buf = appendField(buf, int64(e.X.Raw))
		buf = appendField(buf, int64(e.Y.Raw))
		buf = appendField(buf, int64(e.VX.Raw))
		buf = appendField(buf, int64(e.VY.Raw))
		buf = appendField(buf, int64(e.W.Raw))
		buf = appendField(buf, int64(e.H.Raw))
		buf = appendField(buf, int64(e.HP))
		buf = appendField(buf, int64(e.MaxHP))
	}
	sum := md5.Sum(buf)
	return hex.EncodeToString(sum[:])
}

func appendField(buf []byte, v int64) []byte {
	buf = strconv.AppendInt(buf, v, 10)
	return append(buf, fieldSeparator)
}
