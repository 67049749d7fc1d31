package idpool

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPool(t *testing.T) {
	Convey("Given an empty pool", t, func() {
		p := New[string]()

		Convey("InsertFree appends when there are no free slots", func() {
			id1 := p.InsertFree("a")
			id2 := p.InsertFree("b")
			So(id1, ShouldEqual, uint32(0))
			So(id2, ShouldEqual, uint32(1))
		})

		Convey("Insert at a sparse id extends the pool and marks gaps free", func() {
			p.Insert(3, "x")
			So(p.Len(), ShouldEqual, 4)
			v, ok := p.Get(3)
			So(ok, ShouldBeTrue)
			So(*v, ShouldEqual, "x")

			_, ok = p.Get(1)
			So(ok, ShouldBeFalse)

			Convey("InsertFree reuses one of the gap slots", func() {
				id := p.InsertFree("y")
				So(id, ShouldBeLessThan, uint32(3))
			})
		})

		Convey("Remove empties a slot and Get reports it absent", func() {
			id := p.InsertFree("a")
			p.Remove(id)
			_, ok := p.Get(id)
			So(ok, ShouldBeFalse)

			Convey("The freed slot is reused LIFO by a subsequent InsertFree", func() {
				newID := p.InsertFree("b")
				So(newID, ShouldEqual, id)
			})
		})

		Convey("Iter visits only occupied slots in ascending id order", func() {
			p.InsertFree("a")
			p.InsertFree("b")
			id := p.InsertFree("c")
			p.Remove(id)

			var seen []string
			p.Iter(func(id uint32, v *string) {
				seen = append(seen, *v)
			})
			So(seen, ShouldResemble, []string{"a", "b"})
		})

		Convey("RemoveWhere drains every slot matching the predicate", func() {
			p.InsertFree("keep")
			p.InsertFree("drop")
			p.InsertFree("keep2")

			p.RemoveWhere(func(v *string) bool { return *v == "drop" })

			var seen []string
			p.Iter(func(id uint32, v *string) { seen = append(seen, *v) })
			So(seen, ShouldResemble, []string{"keep", "keep2"})
		})
	})
}
