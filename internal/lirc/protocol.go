package lirc

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// reply is one BEGIN..END packet from lircd:
//
//	BEGIN
//	<command>
//	SUCCESS|ERROR
//	[DATA
//	<n>
//	<n lines>]
//	END
type reply struct {
	command string
	success bool
	data    []string
}

// readReply reads packets until it finds the reply to command. SIGHUP
// broadcasts, which lircd sends after reloading its config, are skipped.
func readReply(r *bufio.Reader, command string) (*reply, error) {
	for {
		rep, err := readPacket(r)
		if err != nil {
			return nil, err
		}
		if rep.command == "SIGHUP" {
			continue
		}
		if rep.command != command {
			return nil, fmt.Errorf("lircd replied to %q, expected %q", rep.command, command)
		}
		return rep, nil
	}
}

func readPacket(r *bufio.Reader) (*reply, error) {
	line, err := readLine(r)
	for err == nil && line != "BEGIN" {
		line, err = readLine(r)
	}
	if err != nil {
		return nil, err
	}

	rep := &reply{}
	if rep.command, err = readLine(r); err != nil {
		return nil, err
	}

	for {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		switch line {
		case "END":
			return rep, nil
		case "SUCCESS":
			rep.success = true
		case "ERROR":
			rep.success = false
		case "DATA":
			countLine, err := readLine(r)
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(countLine)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("lircd: bad DATA length %q", countLine)
			}
			rep.data = make([]string, 0, n)
			for i := 0; i < n; i++ {
				d, err := readLine(r)
				if err != nil {
					return nil, err
				}
				rep.data = append(rep.data, d)
			}
		default:
			return nil, fmt.Errorf("lircd: unexpected line %q", line)
		}
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// codeName extracts the command name from a "LIST <remote>" data line,
// which lircd formats as "<hex code> <name>".
func codeName(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
