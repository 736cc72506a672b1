package datetime_test

import (
	"fmt"

	"github.com/ssargent/pxdb/pkg/datetime"
	"github.com/ssargent/pxdb/pkg/value"
)

func ExampleFormat() {
	v := value.Integer(value.Date, 737425)

	s, err := datetime.Format(v, "DD.MM.YYYY")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(s)
	// Output: 01.01.2020
}

func ExampleFormatTime() {
	s, _ := datetime.FormatTime(45296000, "HH:MI:SS")
	fmt.Println(s)

	_, err := datetime.FormatTime(45296000, "YYYY")
	fmt.Println(err)
	// Output:
	// 12:34:56
	// datetime: token YYYY needs a date but the value is a time of day
}
