package shell

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed helptext/*.txt
var helptext embed.FS

func usageTopic(topic string) (string, error) {
	dat, err := helptext.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return "", fmt.Errorf("%w: there is no help text for the topic %s", errUsage, topic)
	}
	return strings.TrimSuffix(string(dat), "\n"), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	topic := "usage"
	if len(cmd.args) > 0 {
		topic = cmd.args[0]
	}
	text, err := usageTopic(topic)
	if err != nil {
		return nil, err
	}
	return msg(text), nil
}
