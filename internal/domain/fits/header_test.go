package fits_test

import (
	"errors"
	"strings"
	"testing"

	fits "github.com/okian/skystream/internal/domain/fits"
	. "github.com/smartystreets/goconvey/convey"
)

// card pads a record to the fixed 80-byte FITS card length.
func card(s string) string {
	return s + strings.Repeat(" ", 80-len(s))
}

func TestParseHeader(t *testing.T) {
	Convey("Given an 80-byte card serialized header", t, func() {
		meta := card("SIMPLE  =                    T") +
			card("NAXIS1  =                 1024") +
			card("NAXIS2  =                 1024") +
			card("DATE-OBS= '2020-01-01T00:00:00.5' / start of observation") +
			card("COMMENT this line carries no value") +
			card("END")

		Convey("When parsing", func() {
			header, err := fits.ParseHeader([]byte(meta))

			Convey("Then keys, quoted values and comments are handled", func() {
				So(err, ShouldBeNil)
				So(header["NAXIS1"], ShouldEqual, "1024")
				So(header["NAXIS2"], ShouldEqual, "1024")
				So(header["DATE-OBS"], ShouldEqual, "2020-01-01T00:00:00.5")
				So(header["SIMPLE"], ShouldEqual, "T")
				So(header, ShouldNotContainKey, "COMMENT")
				So(header, ShouldNotContainKey, "END")
			})
		})
	})

	Convey("Given a newline-separated header", t, func() {
		meta := []byte("naxis1 = 2\nNAXIS2 = 4\ndate-obs = 2020-01-01T00:00:00\n\n")

		Convey("Then keys are folded to upper case", func() {
			header, err := fits.ParseHeader(meta)
			So(err, ShouldBeNil)
			So(header["NAXIS1"], ShouldEqual, "2")
			So(header["NAXIS2"], ShouldEqual, "4")
			So(header["DATE-OBS"], ShouldEqual, "2020-01-01T00:00:00")
		})
	})

	Convey("Given an unquoted value with a trailing comment", t, func() {
		header, err := fits.ParseHeader([]byte("EXPTIME = 2.5 / seconds\n"))
		So(err, ShouldBeNil)
		So(header["EXPTIME"], ShouldEqual, "2.5")
	})

	Convey("Given an empty metadata block", t, func() {
		_, err := fits.ParseHeader(nil)
		So(errors.Is(err, fits.ErrDecode), ShouldBeTrue)
	})

	Convey("Given a block with no key/value records", t, func() {
		_, err := fits.ParseHeader([]byte("COMMENT nothing here\nEND\n"))
		So(errors.Is(err, fits.ErrDecode), ShouldBeTrue)
	})
}
