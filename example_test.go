package stepform_test

import (
	"context"
	"fmt"

	"github.com/petrijr/stepform"
)

func Example() {
	ctrl := stepform.New("contact").
		Group("personal").
		Group("address").
		Group("message").
		MustBuild(stepform.NewInMemoryStore())

	out, err := ctrl.Render(context.Background(), stepform.RequestContext{})
	if err != nil {
		panic(err)
	}
	fmt.Println(out.Form.Group, out.Form.SubmitLabel, out.Form.Caption)
	// Output: personal Next step Step 1 of 3
}
