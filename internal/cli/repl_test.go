package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool

	calls    []string
	args     [][]string
	reported []error
	failWith error
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) report(err error) { f.reported = append(f.reported, err) }
func (f *fakeExec) rec(name string) error {
	f.calls = append(f.calls, name)
	return f.failWith
}
func (f *fakeExec) recArgs(name string, args []string) error {
	f.args = append(f.args, args)
	return f.rec(name)
}

func (f *fakeExec) Register(context.Context) error { return f.rec("register") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.rec("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.rec("logout")
}
func (f *fakeExec) ChangePassword(context.Context) error { return f.rec("passwd") }
func (f *fakeExec) ChangeEmail(context.Context) error    { return f.rec("email") }
func (f *fakeExec) WhoAmI(context.Context) error         { return f.rec("whoami") }
func (f *fakeExec) Add(context.Context) error            { return f.rec("add") }
func (f *fakeExec) Edit(_ context.Context, args []string) error {
	return f.recArgs("edit", args)
}
func (f *fakeExec) Delete(_ context.Context, args []string) error {
	return f.recArgs("delete", args)
}
func (f *fakeExec) Show(_ context.Context, args []string) error {
	return f.recArgs("show", args)
}
func (f *fakeExec) List(context.Context) error { return f.rec("list") }
func (f *fakeExec) Filter(_ context.Context, args []string) error {
	return f.recArgs("filter", args)
}
func (f *fakeExec) Today(context.Context) error { return f.rec("today") }
func (f *fakeExec) Upcoming(_ context.Context, args []string) error {
	return f.recArgs("upcoming", args)
}
func (f *fakeExec) Remind(_ context.Context, args []string) error {
	return f.recArgs("remind", args)
}
func (f *fakeExec) Export(context.Context) error { return f.rec("export") }

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	in := readerOf("help\nlist\nlogin\nhelp\nadd\nl\nshow 12\nfilter keyword=gym\ntoday\n" +
		"upcoming 30\nremind 3\nexport\nwhoami\npasswd\nemail\nedit 4\ndelete 5\nfoobar\nlogout\nexit\nlist\n")
	var out bytes.Buffer

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(alice)" }, in, &out)

	assert.Equal(t, []string{
		"login", "add", "list", "show", "filter", "today", "upcoming", "remind",
		"export", "whoami", "passwd", "email", "edit", "delete", "logout",
	}, exec.calls)
	assert.Equal(t, []string{"12"}, exec.args[0])
	assert.Equal(t, []string{"keyword=gym"}, exec.args[1])

	s := out.String()
	assert.Contains(t, s, "gophcal(alice)> ")
	assert.Contains(t, s, helpLoggedOut)
	assert.Contains(t, s, helpLoggedIn)
	assert.Contains(t, s, "Please login first")
	assert.Contains(t, s, "Unknown command: foobar")
	assert.Contains(t, s, "Bye!")
}

func TestRunREPL_GuardsCommandsWhenLoggedOut(t *testing.T) {
	var out bytes.Buffer
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, readerOf("add\nexport\nnope\n"), &out)

	assert.Empty(t, exec.calls)
	assert.Contains(t, out.String(), "Please login first")
	assert.Contains(t, out.String(), "Unknown command: nope")
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("boom")
	exec := &fakeExec{loggedIn: true, failWith: boom}
	runREPL(context.Background(), exec, func() string { return "" }, readerOf("list\ntoday\nquit\n"), &out)

	require.Len(t, exec.reported, 2)
	assert.ErrorIs(t, exec.reported[0], boom)
	assert.Equal(t, []string{"list", "today"}, exec.calls)
}
