package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/profile-sync/internal/service"
	"github.com/MKhiriev/profile-sync/models"
)

type commandKind int

const (
	cmdEnqueue commandKind = iota
	cmdSwitch
	cmdWipe
	cmdPermission
)

// command is one parsed console command line.
type command struct {
	kind       commandKind
	update     models.PendingUpdate
	key        models.ProfileKey
	discard    bool
	permission models.Permission
}

const commandHelp = "set <name> <json> · tag <item> <tag> [notes] · untag <item> · " +
	"loadout <id> <name> · rmloadout <id> · search <query> · forget <query> · " +
	"switch <account:version> [--discard] · wipe · allow · deny"

func parseCommand(line string, now time.Time) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, fmt.Errorf("%w: empty command", errUnknownCommand)
	}

	name, args := fields[0], fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), name))

	switch name {
	case "set":
		if len(args) < 2 {
			return command{}, fmt.Errorf("%w: set <name> <json>", errUsage)
		}
		raw := strings.TrimSpace(strings.TrimPrefix(rest, args[0]))
		value := json.RawMessage(raw)
		if !json.Valid(value) {
			// bare words are taken as strings
			value, _ = json.Marshal(raw)
		}
		return enqueue(models.ActionSetting, map[string]json.RawMessage{args[0]: value})

	case "tag":
		if len(args) < 2 {
			return command{}, fmt.Errorf("%w: tag <item> <tag> [notes]", errUsage)
		}
		return enqueue(models.ActionTag, models.ItemAnnotation{
			ItemID: args[0],
			Tag:    args[1],
			Notes:  strings.Join(args[2:], " "),
		})

	case "untag":
		if len(args) != 1 {
			return command{}, fmt.Errorf("%w: untag <item>", errUsage)
		}
		return enqueue(models.ActionTag, models.ItemAnnotation{ItemID: args[0]})

	case "loadout":
		if len(args) < 2 {
			return command{}, fmt.Errorf("%w: loadout <id> <name>", errUsage)
		}
		return enqueue(models.ActionLoadout, models.Loadout{
			ID:            args[0],
			Name:          strings.Join(args[1:], " "),
			LastUpdatedAt: now.UnixMilli(),
		})

	case "rmloadout":
		if len(args) != 1 {
			return command{}, fmt.Errorf("%w: rmloadout <id>", errUsage)
		}
		return enqueue(models.ActionDeleteLoadout, models.DeleteLoadoutPayload{ID: args[0]})

	case "search":
		if rest == "" {
			return command{}, fmt.Errorf("%w: search <query>", errUsage)
		}
		return enqueue(models.ActionSearch, models.Search{
			Query:      rest,
			Saved:      true,
			UsageCount: 1,
			LastUsage:  now.UnixMilli(),
		})

	case "forget":
		if rest == "" {
			return command{}, fmt.Errorf("%w: forget <query>", errUsage)
		}
		return enqueue(models.ActionDeleteSearch, models.DeleteSearchPayload{Query: rest})

	case "switch":
		if len(args) == 0 || len(args) > 2 || (len(args) == 2 && args[1] != "--discard") {
			return command{}, fmt.Errorf("%w: switch <account:version> [--discard]", errUsage)
		}
		key, err := models.ParseProfileKey(args[0])
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdSwitch, key: key, discard: len(args) == 2}, nil

	case "wipe":
		return command{kind: cmdWipe}, nil

	case "allow":
		return command{kind: cmdPermission, permission: models.PermissionGranted}, nil

	case "deny":
		return command{kind: cmdPermission, permission: models.PermissionDenied}, nil
	}

	return command{}, fmt.Errorf("%w: %q", errUnknownCommand, name)
}

func enqueue(action models.UpdateAction, payload any) (command, error) {
	update, err := models.NewPendingUpdate(action, payload, nil)
	if err != nil {
		return command{}, err
	}
	return command{kind: cmdEnqueue, update: update}, nil
}

// execute runs c against the sync services and returns a status line.
func (c command) execute(ctx context.Context, services *service.ClientServices) (string, error) {
	switch c.kind {
	case cmdEnqueue:
		services.Engine.Enqueue(c.update)
		return fmt.Sprintf("Queued %s update", c.update.Action), nil

	case cmdSwitch:
		if err := services.Scheduler.SwitchAccount(ctx, c.key, c.discard); err != nil {
			return "", fmt.Errorf("switch to %s: %w", c.key, err)
		}
		return "Switched to " + c.key.String(), nil

	case cmdWipe:
		if err := services.Engine.WipeRemote(ctx); err != nil {
			return "", err
		}
		return "Remote profile data deleted", nil

	case cmdPermission:
		services.Gate.Set(c.permission)
		if c.permission.Granted() {
			return "Sync allowed", nil
		}
		return "Sync turned off, changes stay on this device", nil
	}

	return "", errUnknownCommand
}
